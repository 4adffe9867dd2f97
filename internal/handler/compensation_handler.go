package handler

import (
	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type CompensationHandler struct {
	service *service.CompensationService
}

func NewCompensationHandler(s *service.CompensationService) *CompensationHandler {
	return &CompensationHandler{service: s}
}

// List 补偿列表
func (h *CompensationHandler) List(c *gin.Context) {
	response.Success(c, response.FilterCompensations(h.service.List()))
}

// Get 补偿详情
func (h *CompensationHandler) Get(c *gin.Context) {
	comp, err := h.service.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, response.FilterCompensationInfo(comp))
}

// Create 新建补偿
func (h *CompensationHandler) Create(c *gin.Context) {
	var in service.CompensationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comp, err := h.service.Create(c.Request.Context(), CurrentAdmin(c).Username, in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "补偿已创建", response.FilterCompensationInfo(comp))
}

// Update 编辑补偿
func (h *CompensationHandler) Update(c *gin.Context) {
	var in service.CompensationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comp, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "补偿已更新", response.FilterCompensationInfo(comp))
}

// Delete 删除补偿
func (h *CompensationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "补偿已删除", nil)
}
