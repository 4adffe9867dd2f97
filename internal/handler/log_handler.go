package handler

import (
	"ac-server/internal/service"
	"ac-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	service *service.ClaimLogService
}

func NewLogHandler(s *service.ClaimLogService) *LogHandler {
	return &LogHandler{service: s}
}

// List 领取日志，可按 player 或 compensation 过滤
func (h *LogHandler) List(c *gin.Context) {
	switch {
	case c.Query("player") != "":
		response.Success(c, h.service.ForPrincipal(c.Query("player")))
	case c.Query("compensation") != "":
		response.Success(c, h.service.ForCompensation(c.Query("compensation")))
	default:
		response.Success(c, h.service.List())
	}
}
