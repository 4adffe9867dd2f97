package handler

import (
	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// Register 用户注册，注册验证码发送到邮箱
func (h *UserHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.service.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "注册成功，请查收验证码邮件", response.FilterUserInfo(user))
}

// ResendCode 重新发送注册验证码
func (h *UserHandler) ResendCode(c *gin.Context) {
	type req struct {
		Email string `json:"email" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.ResendRegisterCode(c.Request.Context(), r.Email); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "验证码已发送", nil)
}

// Verify 验证邮箱
func (h *UserHandler) Verify(c *gin.Context) {
	type req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.service.VerifyEmail(c.Request.Context(), r.Email, r.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "邮箱验证成功", response.FilterUserInfo(user))
}

// Login 用户登录
func (h *UserHandler) Login(c *gin.Context) {
	type req struct {
		UsernameOrEmail string `json:"usernameOrEmail" binding:"required"`
		Password        string `json:"password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, user, err := h.service.Login(c.Request.Context(), r.UsernameOrEmail, r.Password)
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

// Logout 注销当前令牌
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), CurrentToken(c)); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已退出登录", nil)
}

// GetProfile 获取当前用户资料（需要认证）
func (h *UserHandler) GetProfile(c *gin.Context) {
	user := CurrentUser(c)
	profile := response.ProfileResponse{UserInfo: response.FilterUserInfo(user)}
	if !user.GameBound() {
		profile.VerificationKey = user.VerificationKey
	}
	response.Success(c, profile)
}

// RequestPasswordReset 发送重置密码验证码
func (h *UserHandler) RequestPasswordReset(c *gin.Context) {
	type req struct {
		Email string `json:"email" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.RequestPasswordReset(c.Request.Context(), r.Email); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "验证码已发送", nil)
}

// ResetPassword 重置密码
func (h *UserHandler) ResetPassword(c *gin.Context) {
	type req struct {
		Email       string `json:"email" binding:"required"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), r.Email, r.Code, r.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "密码已重置，请重新登录", nil)
}

// RequestEmailChange 向新邮箱发送验证码
func (h *UserHandler) RequestEmailChange(c *gin.Context) {
	type req struct {
		NewEmail string `json:"newEmail" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.RequestEmailChange(c.Request.Context(), CurrentUser(c).Username, r.NewEmail); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "验证码已发送", nil)
}

// ChangeEmail 修改邮箱
func (h *UserHandler) ChangeEmail(c *gin.Context) {
	type req struct {
		NewEmail string `json:"newEmail" binding:"required"`
		Code     string `json:"code" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.service.ChangeEmail(c.Request.Context(), CurrentUser(c).Username, r.NewEmail, r.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "邮箱已修改", response.FilterUserInfo(user))
}

// List 用户列表（管理端）
func (h *UserHandler) List(c *gin.Context) {
	users := h.service.List()
	out := make([]response.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, response.FilterUserInfo(u))
	}
	response.Success(c, out)
}

// Delete 删除用户（管理端）
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("username")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "用户已删除", nil)
}
