package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ac-server/config"
	"ac-server/internal/handler"
	"ac-server/internal/repository"
	"ac-server/internal/service"
	"ac-server/internal/session"
	"ac-server/internal/storage"
	"ac-server/pkg/clock"
	"ac-server/pkg/logger"
	"ac-server/pkg/mail"
	"ac-server/pkg/metrics"
	redisPkg "ac-server/pkg/redis"
	"ac-server/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	// 2. 初始化日志系统
	log, err := logger.InitLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("=== AC服务启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("storage_kind", cfg.Storage.Kind),
		zap.String("session_backend", cfg.Session.Backend),
		zap.Duration("session_ttl", cfg.Session.TTL),
		zap.String("log_level", cfg.Log.Level),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("服务异常退出", zap.Error(err))
	}
	log.Info("服务器已安全关闭")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.System{}
	m := metrics.New()

	// 3. 选择存储后端并加载缓存
	store, err := storage.Open(cfg.Storage, log, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("关闭存储失败", zap.Error(err))
		}
	}()
	log.Info("存储后端已就绪",
		zap.String("backend", store.BackendName()),
		zap.Bool("available", store.IsAvailable(ctx)),
	)

	cache := repository.NewCache(store, clk, log)
	if err := cache.Load(ctx); err != nil {
		return err
	}

	// 4. 管理员对账
	result, err := service.BootstrapAdmin(ctx, cache, cfg.Admin, log)
	if err != nil {
		return err
	}
	log.Info("管理员检查完成", zap.String("result", string(result)))

	// 5. 会话存储
	sessions, runSessionSweeper, closeSessions, err := newSessionStore(ctx, cfg, clk, log, m)
	if err != nil {
		return err
	}
	defer closeSessions()

	// 6. 业务服务
	hub := websocket.NewHub(log)
	codes := service.NewVerificationService(cache, clk, cfg.Verification.CodeTTL, log, m)
	announcements := service.NewAnnouncementService(cache, clk, hub, log)
	deps := handler.Deps{
		Log:           log,
		Metrics:       m,
		Storage:       store,
		Admins:        service.NewAdminService(cache, sessions, log),
		Users:         service.NewUserService(cache, sessions, codes, mail.New(cfg.Mail, log), clk, log),
		Announcements: announcements,
		Compensations: service.NewCompensationService(cache, service.NewLoggingGranter(log), log, m),
		Whitelist:     service.NewWhitelistService(cache, log),
		ClaimLogs:     service.NewClaimLogService(cache),
		Hub:           hub,
		WebSocket:     cfg.WebSocket,
	}

	// 7. 后台任务：会话清理、验证码清理、定时公告
	workers, cancelWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	start := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(workers)
		}()
	}
	if runSessionSweeper != nil {
		start(runSessionSweeper)
	}
	start(func(ctx context.Context) { codes.Run(ctx, cfg.Verification.SweepInterval) })
	start(func(ctx context.Context) { announcements.Run(ctx, cfg.Announcement.DispatchInterval) })

	// 8. HTTP服务器
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 9. 优雅关闭
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error("HTTP服务器启动失败", zap.Error(err))
		}
	}
	log.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}
	cancelWorkers()
	wg.Wait()

	// 全量写回后再关闭存储
	if err := cache.Flush(shutdownCtx); err != nil {
		log.Error("关闭前全量保存失败", zap.Error(err))
	}
	return nil
}

// newSessionStore 按配置创建会话存储；内存存储需要后台清理
func newSessionStore(ctx context.Context, cfg *config.Config, clk clock.Clock, log *zap.Logger, m *metrics.Metrics) (session.Store, func(context.Context), func(), error) {
	if cfg.Session.Backend == "redis" {
		client, err := redisPkg.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("会话存储使用Redis", zap.String("addr", cfg.Redis.Addr()))
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Error("关闭Redis连接失败", zap.Error(err))
			}
		}
		return session.NewRedisStore(client, cfg.Session.TTL, m), nil, closeFn, nil
	}

	store := session.NewMemoryStore(cfg.Session.TTL, clk, log, m)
	run := func(ctx context.Context) { store.Run(ctx, cfg.Session.SweepInterval) }
	return store, run, func() {}, nil
}
