package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"ac-server/config"
	"ac-server/internal/storage"

	"go.uber.org/zap"
)

// 在文件存储与关系型存储之间做一次性全量迁移
// 用法: go run ./tools/migrate -from file -to relational
func main() {
	configPath := flag.String("config", config.DefaultPath, "配置文件路径")
	from := flag.String("from", "file", "源存储: file / relational")
	to := flag.String("to", "relational", "目标存储: file / relational")
	yes := flag.Bool("yes", false, "跳过确认")
	flag.Parse()

	if *from == *to {
		log.Fatalf("源存储与目标存储相同: %s", *from)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logger := zap.NewNop()

	src, err := openBackend(*from, cfg.Storage, logger)
	if err != nil {
		log.Fatalf("打开源存储失败: %v", err)
	}
	defer src.Close()

	dst, err := openBackend(*to, cfg.Storage, logger)
	if err != nil {
		log.Fatalf("打开目标存储失败: %v", err)
	}
	defer dst.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	data, err := src.LoadAll(ctx)
	if err != nil {
		log.Fatalf("读取源数据失败: %v", err)
	}

	fmt.Printf("源存储: %s\n", src.Name())
	fmt.Printf("目标存储: %s\n", dst.Name())
	fmt.Printf("管理员 %d, 公告 %d, 补偿 %d, 白名单 %d, 领取日志 %d, 用户 %d, 验证码 %d\n",
		len(data.Admins), len(data.Announcements), len(data.Compensations),
		len(data.Whitelist), len(data.ClaimLogs), len(data.Users), len(data.EmailCodes))

	if !*yes {
		fmt.Print("\n警告: 目标存储中的全部数据将被替换!\n")
		fmt.Print("输入 'YES' 确认: ")
		var confirm string
		_, _ = fmt.Scanln(&confirm)
		if confirm != "YES" {
			fmt.Println("操作已取消")
			return
		}
	}

	if err := dst.SaveAll(ctx, data); err != nil {
		log.Fatalf("写入目标存储失败: %v", err)
	}
	fmt.Println("\n迁移完成!")
	fmt.Println("请修改配置中的 storage.kind 后重启服务")
}

func openBackend(kind string, cfg config.StorageConfig, logger *zap.Logger) (storage.Backend, error) {
	switch kind {
	case "file":
		return storage.NewFileBackend(cfg.DataDir, logger)
	case "relational":
		return storage.OpenSQLBackend(cfg.Relational, logger)
	default:
		return nil, fmt.Errorf("未知的存储类型: %q", kind)
	}
}
