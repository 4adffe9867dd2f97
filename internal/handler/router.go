package handler

import (
	"context"
	"time"

	"ac-server/config"
	"ac-server/internal/model"
	"ac-server/internal/service"
	"ac-server/pkg/logger"
	"ac-server/pkg/metrics"
	"ac-server/pkg/response"
	"ac-server/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StorageStatus 健康检查需要的存储状态
type StorageStatus interface {
	BackendName() string
	IsAvailable(ctx context.Context) bool
}

// Deps 路由依赖
type Deps struct {
	Log           *zap.Logger
	Metrics       *metrics.Metrics
	Storage       StorageStatus
	Admins        *service.AdminService
	Users         *service.UserService
	Announcements *service.AnnouncementService
	Compensations *service.CompensationService
	Whitelist     *service.WhitelistService
	ClaimLogs     *service.ClaimLogService
	Hub           *websocket.Hub
	WebSocket     config.WebSocketConfig
}

// NewRouter 创建Gin路由并绑定全部接口
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(logger.RequestLogger(d.Log))         // 请求日志
	router.Use(logger.ErrorLoggerMiddleware(d.Log)) // panic恢复
	router.Use(d.Metrics.Middleware())

	adminHandler := NewAdminHandler(d.Admins)
	userHandler := NewUserHandler(d.Users)
	announcementHandler := NewAnnouncementHandler(d.Announcements)
	compensationHandler := NewCompensationHandler(d.Compensations)
	whitelistHandler := NewWhitelistHandler(d.Whitelist)
	logHandler := NewLogHandler(d.ClaimLogs)
	gatewayHandler := NewGatewayHandler(d.Users)
	playerHandler := NewPlayerHandler(d.Announcements, d.Compensations, d.Whitelist)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		available := d.Storage.IsAvailable(c.Request.Context())
		if !available {
			status = "storage-down"
		}
		d.Metrics.SetStorageUp(available)
		response.Success(c, gin.H{
			"status":  status,
			"backend": d.Storage.BackendName(),
			"online":  d.Hub.Count(),
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	// WebSocket：只有绑定了游戏角色的用户才能接入
	ws := websocket.NewHandler(d.Hub, func(ctx context.Context, token string) (string, error) {
		user, err := d.Users.Resolve(ctx, token)
		if err != nil {
			return "", err
		}
		player, err := d.Users.Player(user)
		if err != nil {
			return "", err
		}
		return player.UUID, nil
	}, d.Announcements, d.WebSocket, d.Log)
	router.GET("/ws", ws.Serve)

	v1 := router.Group("/api/v1")
	{
		// 管理员登录（公开）
		v1.POST("/admin/login", adminHandler.Login)

		admin := v1.Group("")
		admin.Use(AdminAuth(d.Admins))
		{
			admin.POST("/admin/logout", adminHandler.Logout)
			admin.GET("/admin/me", adminHandler.Me)
			admin.PUT("/admin/password", adminHandler.ChangePassword)

			announcements := admin.Group("/announcements", RequireCapability(d.Admins, model.CapAnnouncement))
			{
				announcements.GET("", announcementHandler.List)
				announcements.GET("/:id", announcementHandler.Get)
				announcements.POST("", announcementHandler.Create)
				announcements.PUT("/:id", announcementHandler.Update)
				announcements.DELETE("/:id", announcementHandler.Delete)
			}

			compensations := admin.Group("/compensations", RequireCapability(d.Admins, model.CapCompensation))
			{
				compensations.GET("", compensationHandler.List)
				compensations.GET("/:id", compensationHandler.Get)
				compensations.POST("", compensationHandler.Create)
				compensations.PUT("/:id", compensationHandler.Update)
				compensations.DELETE("/:id", compensationHandler.Delete)
			}

			whitelist := admin.Group("/whitelist", RequireCapability(d.Admins, model.CapWhitelist))
			{
				whitelist.GET("", whitelistHandler.List)
				whitelist.POST("", whitelistHandler.Add)
				whitelist.DELETE("/:uuid", whitelistHandler.Remove)
				whitelist.GET("/enabled", whitelistHandler.Enabled)
				whitelist.PUT("/enabled", whitelistHandler.SetEnabled)
			}

			admin.GET("/logs", RequireCapability(d.Admins, model.CapLog), logHandler.List)

			accounts := admin.Group("/accounts", RequireCapability(d.Admins, model.CapUser))
			{
				accounts.GET("", userHandler.List)
				accounts.DELETE("/:username", userHandler.Delete)
			}

			// 游戏服务器与QQ网关：绑定身份必须由网关提供
			gateway := admin.Group("/gateway", RequireCapability(d.Admins, model.CapUser))
			{
				gateway.POST("/bind-game", gatewayHandler.BindGame)
				gateway.POST("/bind-qq", gatewayHandler.BindQQ)
				gateway.POST("/login/qq", gatewayHandler.LoginQQ)
			}

			admins := admin.Group("/admins", RequireAllCapabilities(d.Admins))
			{
				admins.GET("", adminHandler.List)
				admins.POST("", adminHandler.Create)
				admins.DELETE("/:username", adminHandler.Delete)
			}
		}

		users := v1.Group("/users")
		{
			// 公开接口（无需认证）
			users.POST("/register", userHandler.Register)
			users.POST("/register/resend", userHandler.ResendCode)
			users.POST("/verify", userHandler.Verify)
			users.POST("/login", userHandler.Login)
			users.POST("/password/reset-code", userHandler.RequestPasswordReset)
			users.POST("/password/reset", userHandler.ResetPassword)

			// 需要认证的接口
			authUsers := users.Group("")
			authUsers.Use(UserAuth(d.Users))
			{
				authUsers.GET("/me", userHandler.GetProfile)
				authUsers.POST("/logout", userHandler.Logout)
				authUsers.POST("/email/change-code", userHandler.RequestEmailChange)
				authUsers.POST("/email/change", userHandler.ChangeEmail)
			}
		}

		// 玩家接口（需要已绑定游戏角色）
		player := v1.Group("/player")
		player.Use(UserAuth(d.Users), RequirePlayer(d.Users))
		{
			player.GET("/announcements", playerHandler.Announcements)
			player.GET("/compensations", playerHandler.Compensations)
			player.POST("/compensations/:id/claim", playerHandler.Claim)
			player.POST("/compensations/claim-all", playerHandler.ClaimAll)
			player.GET("/whitelist", playerHandler.Whitelist)
		}
	}

	return router
}
