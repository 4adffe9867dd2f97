package redis

import (
	"context"
	"fmt"
	"time"

	"ac-server/config"

	"github.com/redis/go-redis/v9"
)

// NewClient 创建Redis客户端并测试连接
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		// 连接池配置
		PoolSize:     10,              // 连接池大小
		MinIdleConns: 5,               // 最小空闲连接
		MaxRetries:   3,               // 最大重试次数
		DialTimeout:  5 * time.Second, // 连接超时
		ReadTimeout:  3 * time.Second, // 读超时
		WriteTimeout: 3 * time.Second, // 写超时
	})

	// 测试连接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}

	return client, nil
}

// HealthCheck 检查Redis健康状态
func HealthCheck(ctx context.Context, client redis.UniversalClient) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis连接异常: %w", err)
	}

	return nil
}
