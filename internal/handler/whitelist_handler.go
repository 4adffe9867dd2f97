package handler

import (
	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type WhitelistHandler struct {
	service *service.WhitelistService
}

func NewWhitelistHandler(s *service.WhitelistService) *WhitelistHandler {
	return &WhitelistHandler{service: s}
}

// List 白名单列表
func (h *WhitelistHandler) List(c *gin.Context) {
	response.Success(c, h.service.List())
}

// Add 添加白名单
func (h *WhitelistHandler) Add(c *gin.Context) {
	var in service.WhitelistInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	entry, err := h.service.Add(c.Request.Context(), CurrentAdmin(c).Username, in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已添加白名单", entry)
}

// Remove 移除白名单
func (h *WhitelistHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("uuid")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已移除白名单", nil)
}

// Enabled 白名单开关状态
func (h *WhitelistHandler) Enabled(c *gin.Context) {
	response.Success(c, gin.H{"enabled": h.service.Enabled()})
}

// SetEnabled 开关白名单
func (h *WhitelistHandler) SetEnabled(c *gin.Context) {
	type req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.SetEnabled(c.Request.Context(), *r.Enabled); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"enabled": *r.Enabled})
}
