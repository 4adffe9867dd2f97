package handler

import (
	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service *service.AdminService
}

func NewAdminHandler(s *service.AdminService) *AdminHandler {
	return &AdminHandler{service: s}
}

// Login 管理员登录
func (h *AdminHandler) Login(c *gin.Context) {
	type req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, admin, err := h.service.Login(c.Request.Context(), r.Username, r.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	info := response.FilterAdminInfo(admin)
	response.SuccessWithMessage(c, "登录成功", &response.LoginResponse{
		AccessToken: token,
		Admin:       &info,
	})
}

// Logout 注销当前令牌
func (h *AdminHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), CurrentToken(c)); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已退出登录", nil)
}

// Me 当前管理员信息
func (h *AdminHandler) Me(c *gin.Context) {
	response.Success(c, response.FilterAdminInfo(CurrentAdmin(c)))
}

// ChangePassword 修改当前管理员密码
func (h *AdminHandler) ChangePassword(c *gin.Context) {
	type req struct {
		OldPassword string `json:"oldPassword" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), CurrentAdmin(c).Username, r.OldPassword, r.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "密码已修改", nil)
}

// List 管理员列表
func (h *AdminHandler) List(c *gin.Context) {
	admins := h.service.List()
	out := make([]response.AdminInfo, 0, len(admins))
	for _, a := range admins {
		out = append(out, response.FilterAdminInfo(a))
	}
	response.Success(c, out)
}

// Create 新增管理员
func (h *AdminHandler) Create(c *gin.Context) {
	var in service.AdminInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	admin, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "管理员已创建", response.FilterAdminInfo(admin))
}

// Delete 删除管理员
func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("username")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "管理员已删除", nil)
}
