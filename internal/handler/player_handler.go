package handler

import (
	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

// PlayerHandler 已绑定游戏角色的玩家接口
type PlayerHandler struct {
	announcements *service.AnnouncementService
	compensations *service.CompensationService
	whitelist     *service.WhitelistService
}

func NewPlayerHandler(a *service.AnnouncementService, c *service.CompensationService, w *service.WhitelistService) *PlayerHandler {
	return &PlayerHandler{announcements: a, compensations: c, whitelist: w}
}

// Announcements 返回未读公告并标记为已读
func (h *PlayerHandler) Announcements(c *gin.Context) {
	list, err := h.announcements.Deliver(c.Request.Context(), CurrentPlayer(c).UUID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, response.FilterAnnouncements(list))
}

// Compensations 未领取的补偿
func (h *PlayerHandler) Compensations(c *gin.Context) {
	response.Success(c, response.FilterCompensations(h.compensations.Unclaimed(CurrentPlayer(c).UUID)))
}

// Claim 领取一个补偿
func (h *PlayerHandler) Claim(c *gin.Context) {
	res, err := h.compensations.Claim(c.Request.Context(), c.Param("id"), CurrentPlayer(c))
	if err != nil && res.CompensationID == "" {
		writeError(c, err)
		return
	}
	if err != nil {
		// 状态已变更但持久化失败，仍然返回发放结果
		_ = c.Error(err)
	}
	message := "领取成功"
	if !res.Complete() {
		message = "部分物品发放失败"
	}
	response.SuccessWithMessage(c, message, res)
}

// ClaimAll 领取全部未领取的补偿
func (h *PlayerHandler) ClaimAll(c *gin.Context) {
	results, err := h.compensations.ClaimAll(c.Request.Context(), CurrentPlayer(c))
	if err != nil && len(results) == 0 {
		writeError(c, err)
		return
	}
	if err != nil {
		_ = c.Error(err)
	}
	response.SuccessWithMessage(c, "领取成功", results)
}

// Whitelist 当前玩家是否允许进入服务器
func (h *PlayerHandler) Whitelist(c *gin.Context) {
	uuid := CurrentPlayer(c).UUID
	response.Success(c, gin.H{
		"enabled": h.whitelist.Enabled(),
		"listed":  h.whitelist.Contains(uuid),
		"admit":   h.whitelist.Admit(uuid),
	})
}
