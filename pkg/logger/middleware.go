package logger

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorLoggerMiddleware 捕获panic并记录错误日志
func ErrorLoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("HTTP请求发生panic",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.String("error", fmt.Sprint(recovered)),
		)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// RequestLogger 请求日志记录器
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 开始时间
		start := time.Now()

		// 处理请求
		c.Next()

		latency := time.Since(start)

		// 获取状态码
		status := c.Writer.Status()

		// 记录请求日志
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		// 根据状态码选择日志级别
		switch {
		case status >= 500:
			log.Error("HTTP请求错误", fields...)
		case status >= 400:
			log.Warn("HTTP请求警告", fields...)
		default:
			log.Info("HTTP请求成功", fields...)
		}
	}
}
