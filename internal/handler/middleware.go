package handler

import (
	"strings"

	"ac-server/internal/model"
	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// ContextTokenKey 令牌在gin.Context中的键名
	ContextTokenKey = "token"
	// ContextAdminKey 当前管理员在gin.Context中的键名
	ContextAdminKey = "admin"
	// ContextUserKey 当前用户在gin.Context中的键名
	ContextUserKey = "user"
	// ContextPlayerKey 当前玩家在gin.Context中的键名
	ContextPlayerKey = "player"
)

// bearerToken 从 Authorization: Bearer <token> 或 X-Token 中提取令牌
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(c.GetHeader("X-Token"))
}

// AdminAuth 管理员认证中间件
func AdminAuth(admins *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "缺少Authorization请求头")
			c.Abort()
			return
		}
		admin, err := admins.Resolve(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(ContextTokenKey, token)
		c.Set(ContextAdminKey, admin)
		c.Next()
	}
}

// RequireCapability 要求当前管理员拥有权限 capability，权限每次请求都重新读取
func RequireCapability(admins *service.AdminService, capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := admins.Authorize(CurrentAdmin(c).Username, capability); err != nil {
			response.Forbidden(c, "缺少权限 "+capability.String())
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAllCapabilities 要求当前管理员拥有通配符权限
func RequireAllCapabilities(admins *service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := admins.AuthorizeAll(CurrentAdmin(c).Username); err != nil {
			response.Forbidden(c, "缺少权限 "+model.PermissionWildcard)
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserAuth 用户认证中间件
func UserAuth(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "缺少Authorization请求头")
			c.Abort()
			return
		}
		user, err := users.Resolve(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(ContextTokenKey, token)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequirePlayer 要求当前用户已绑定游戏角色，须在 UserAuth 之后使用
func RequirePlayer(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		player, err := users.Player(CurrentUser(c))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(ContextPlayerKey, player)
		c.Next()
	}
}

// CurrentAdmin 从Context中获取当前管理员
func CurrentAdmin(c *gin.Context) model.Admin {
	if v, ok := c.Get(ContextAdminKey); ok {
		if a, ok := v.(model.Admin); ok {
			return a
		}
	}
	return model.Admin{}
}

// CurrentUser 从Context中获取当前用户
func CurrentUser(c *gin.Context) model.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if u, ok := v.(model.User); ok {
			return u
		}
	}
	return model.User{}
}

// CurrentPlayer 从Context中获取当前玩家
func CurrentPlayer(c *gin.Context) service.Player {
	if v, ok := c.Get(ContextPlayerKey); ok {
		if p, ok := v.(service.Player); ok {
			return p
		}
	}
	return service.Player{}
}

// CurrentToken 从Context中获取当前令牌
func CurrentToken(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}
