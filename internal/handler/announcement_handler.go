package handler

import (
	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnnouncementHandler struct {
	service *service.AnnouncementService
}

func NewAnnouncementHandler(s *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: s}
}

// List 公告列表
func (h *AnnouncementHandler) List(c *gin.Context) {
	response.Success(c, response.FilterAnnouncements(h.service.List()))
}

// Get 公告详情
func (h *AnnouncementHandler) Get(c *gin.Context) {
	a, err := h.service.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, response.FilterAnnouncementInfo(a))
}

// Create 发布公告
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var in service.AnnouncementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.service.Create(c.Request.Context(), CurrentAdmin(c).Username, in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "公告已发布", response.FilterAnnouncementInfo(a))
}

// Update 编辑公告
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var in service.AnnouncementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "公告已更新", response.FilterAnnouncementInfo(a))
}

// Delete 删除公告
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "公告已删除", nil)
}
