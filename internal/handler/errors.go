package handler

import (
	"errors"

	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError 把服务层错误映射为统一响应码
// 校验类错误直接返回错误信息，其余按500处理并挂到 gin.Context 供请求日志记录
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotVerified),
		errors.Is(err, service.ErrNotBound):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrAlreadyBound),
		errors.Is(err, service.ErrGameRoleTaken),
		errors.Is(err, service.ErrQQTaken),
		errors.Is(err, service.ErrLastAdmin):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrInvalidVerificationKey),
		errors.Is(err, service.ErrNothingToClaim):
		response.BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		response.ErrorWithDetails(c, 500, "服务器内部错误", err)
	}
}
