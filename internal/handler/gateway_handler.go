package handler

import (
	"ac-server/internal/model"
	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

// GatewayHandler 游戏服务器与QQ机器人调用的绑定接口
// 这些接口由可信网关以管理员身份调用，游戏角色UUID与QQ身份都由网关提供
type GatewayHandler struct {
	users *service.UserService
}

func NewGatewayHandler(users *service.UserService) *GatewayHandler {
	return &GatewayHandler{users: users}
}

// BindGame 游戏内玩家输入用户名和验证密钥，由游戏服务器提交玩家UUID
func (h *GatewayHandler) BindGame(c *gin.Context) {
	type req struct {
		Username        string `json:"username" binding:"required"`
		VerificationKey string `json:"verificationKey" binding:"required"`
		GameUUID        string `json:"gameUuid" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.users.BindGameRole(c.Request.Context(), r.Username, r.VerificationKey, r.GameUUID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "绑定成功", response.FilterUserInfo(user))
}

// BindQQ 用户授权后由QQ网关提交，token 为用户自己的登录令牌
func (h *GatewayHandler) BindQQ(c *gin.Context) {
	type req struct {
		Token     string `json:"token" binding:"required"`
		OpenID    string `json:"openId" binding:"required"`
		UnionID   string `json:"unionId" binding:"required"`
		Nickname  string `json:"nickname"`
		AvatarURL string `json:"avatarUrl"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	owner, err := h.users.Resolve(c.Request.Context(), r.Token)
	if err != nil {
		writeError(c, err)
		return
	}
	user, err := h.users.BindQQ(c.Request.Context(), owner.Username, model.QQBinding{
		OpenID:    r.OpenID,
		UnionID:   r.UnionID,
		Nickname:  r.Nickname,
		AvatarURL: r.AvatarURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "绑定成功", response.FilterUserInfo(user))
}

// LoginQQ QQ网关完成授权后为对应账号签发令牌
func (h *GatewayHandler) LoginQQ(c *gin.Context) {
	type req struct {
		OpenID  string `json:"openId" binding:"required"`
		UnionID string `json:"unionId" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, user, err := h.users.LoginQQ(c.Request.Context(), r.OpenID, r.UnionID)
	if err != nil {
		writeError(c, err)
		return
	}
	info := response.FilterUserInfo(user)
	response.SuccessWithMessage(c, "登录成功", &response.LoginResponse{
		AccessToken: token,
		User:        &info,
	})
}
