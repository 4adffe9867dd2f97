package logger

import (
	"os"
	"path/filepath"

	"ac-server/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger 初始化日志系统
func InitLogger(cfg config.LogConfig) (*zap.Logger, error) {
	// 创建日志目录
	if err := os.MkdirAll(filepath.Dir(cfg.Filename), 0755); err != nil {
		return nil, err
	}

	// 配置日志级别
	level := getLogLevel(cfg.Level)

	// 配置日志轮转
	writer := &lumberjack.Logger{
		Filename:   cfg.Filename,   // 日志文件路径
		MaxSize:    cfg.MaxSize,    // 单个文件最大大小(MB)
		MaxBackups: cfg.MaxBackups, // 最大备份文件数
		MaxAge:     cfg.MaxAge,     // 最大保存天数
		Compress:   cfg.Compress,   // 是否压缩
	}

	encoder := zapcore.NewJSONEncoder(encoderConfig())

	// 创建核心配置
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(writer), level)}
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	}

	// 创建日志记录器
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// encoderConfig 日志编码器配置
func encoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return encoderConfig
}

// getLogLevel 获取日志级别
func getLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
