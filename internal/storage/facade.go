package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ac-server/config"
	"ac-server/internal/model"
	"ac-server/pkg/metrics"

	"go.uber.org/zap"
)

// Facade 存储门面：启动时选定后端，之后不再切换
// 所有写操作串行执行，批量保存不会与单条写入交错
type Facade struct {
	backend Backend
	log     *zap.Logger
	metrics *metrics.Metrics
	mu      sync.Mutex
}

// Open 按配置选择后端；关系型后端初始化失败时回退到文件存储
func Open(cfg config.StorageConfig, log *zap.Logger, m *metrics.Metrics) (*Facade, error) {
	log = log.Named("storage")

	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	switch kind {
	case "", "file", "json":
	case "relational", "sql", "database", "mysql", "postgres", "sqlite":
		backend, err := OpenSQLBackend(cfg.Relational, log)
		if err == nil {
			log.Info("使用关系型存储", zap.String("backend", backend.Name()))
			return NewFacade(backend, log, m), nil
		}
		log.Warn("关系型存储初始化失败，回退到文件存储", zap.String("driver", cfg.Relational.Driver), zap.Error(err))
		m.BackendFellBack()
	default:
		log.Warn("未知的存储类型，回退到文件存储", zap.String("kind", cfg.Kind))
		m.BackendFellBack()
	}

	backend, err := NewFileBackend(cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("初始化文件存储失败: %w", err)
	}
	log.Info("使用文件存储", zap.String("dir", cfg.DataDir))
	return NewFacade(backend, log, m), nil
}

// NewFacade 包装一个已初始化的后端
func NewFacade(backend Backend, log *zap.Logger, m *metrics.Metrics) *Facade {
	return &Facade{backend: backend, log: log, metrics: m}
}

// BackendName 当前后端名称
func (f *Facade) BackendName() string { return f.backend.Name() }

// LoadAll 读取全部数据
func (f *Facade) LoadAll(ctx context.Context) (*Dataset, error) {
	data, err := f.backend.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载数据失败: %w", err)
	}
	return data, nil
}

// SaveAll 全量保存
func (f *Facade) SaveAll(ctx context.Context, data *Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.backend.SaveAll(ctx, data); err != nil {
		f.log.Error("全量保存失败", zap.String("backend", f.backend.Name()), zap.Error(err))
		f.metrics.PersistFailed("save_all")
		return err
	}
	return nil
}

// Put 单条写入
func (f *Facade) Put(ctx context.Context, rec model.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.backend.Put(ctx, rec); err != nil {
		f.log.Error("保存记录失败", zap.String("key", rec.RecordKey()), zap.Error(err))
		f.metrics.PersistFailed("put")
		return err
	}
	return nil
}

// Delete 单条删除
func (f *Facade) Delete(ctx context.Context, c Collection, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.backend.Delete(ctx, c, key); err != nil {
		f.log.Error("删除记录失败", zap.String("collection", string(c)), zap.String("key", key), zap.Error(err))
		f.metrics.PersistFailed("delete")
		return err
	}
	return nil
}

// SaveWhitelistEnabled 保存白名单开关
func (f *Facade) SaveWhitelistEnabled(ctx context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.backend.SaveWhitelistEnabled(ctx, enabled); err != nil {
		f.log.Error("保存白名单开关失败", zap.Error(err))
		f.metrics.PersistFailed("setting")
		return err
	}
	return nil
}

// IsAvailable 后端是否可用
func (f *Facade) IsAvailable(ctx context.Context) bool {
	up := f.backend.Available(ctx)
	f.metrics.SetStorageUp(up)
	return up
}

// Close 关闭后端
func (f *Facade) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.backend.Close()
}
