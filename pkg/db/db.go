package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ac-server/config"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 按驱动类型打开数据库连接并配置连接池
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	// 配置GORM
	logMode := logger.Silent
	if cfg.LogSQL {
		logMode = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logMode),

		// 禁用默认事务，批量写入时显式开启事务
		SkipDefaultTransaction: true,

		// 时间统一为UTC秒级精度，与缓存中的记录保持一致
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Second)
		},
	}

	// 连接数据库
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 获取底层的sql.DB对象
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}

	// 配置连接池
	maxIdle, maxOpen := cfg.MaxIdle, cfg.MaxOpen
	if Driver(cfg.Driver) == "sqlite" {
		// sqlite 只允许一个写连接
		maxIdle, maxOpen = 1, 1
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	sqlDB.SetMaxIdleConns(maxIdle)     // 最大空闲连接数
	sqlDB.SetMaxOpenConns(maxOpen)     // 最大打开连接数
	sqlDB.SetConnMaxLifetime(lifetime) // 连接最大生命周期

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	return db, nil
}

// Driver 规范化驱动名称
func Driver(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return "mysql"
	case "postgres", "postgresql", "pg":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch Driver(cfg.Driver) {
	case "mysql":
		return mysql.Open(MySQLDSN(cfg)), nil
	case "postgres":
		return postgres.Open(PostgresDSN(cfg)), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite 数据库路径为空")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("创建sqlite目录失败: %w", err)
		}
		return sqlite.Open(cfg.Path + "?_busy_timeout=5000"), nil
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %q", cfg.Driver)
	}
}

// MySQLDSN 构建MySQL连接字符串，时间统一按UTC解析
func MySQLDSN(cfg config.DatabaseConfig) string {
	mc := mysqldriver.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	charset := cfg.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	mc.Params = map[string]string{"charset": charset}
	return mc.FormatDSN()
}

// PostgresDSN 构建PostgreSQL连接字符串
func PostgresDSN(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, sslMode)
}

// Close 关闭数据库连接
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取数据库实例失败: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck 数据库健康检查
func HealthCheck(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取数据库实例失败: %w", err)
	}

	return sqlDB.Ping()
}

// EnsureTables 幂等建表：仅创建不存在的表，不做结构变更
func EnsureTables(db *gorm.DB, models ...interface{}) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}
	m := db.Migrator()
	for _, model := range models {
		if m.HasTable(model) {
			continue
		}
		if err := m.CreateTable(model); err != nil {
			return fmt.Errorf("创建表失败: %w", err)
		}
	}
	return nil
}
