package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath 默认配置文件路径
const DefaultPath = "config/config.yaml"

// Config 应用配置结构体
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	Admin        AdminConfig        `yaml:"admin"`
	Session      SessionConfig      `yaml:"session"`
	Verification VerificationConfig `yaml:"verification"`
	Announcement AnnouncementConfig `yaml:"announcement"`
	Mail         MailConfig         `yaml:"mail"`
	Log          LogConfig          `yaml:"log"`
	Redis        RedisConfig        `yaml:"redis"`
	WebSocket    WebSocketConfig    `yaml:"websocket"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port         string        `yaml:"port"`         // 服务器监听端口
	Mode         string        `yaml:"mode"`         // gin运行模式
	ReadTimeout  time.Duration `yaml:"readTimeout"`  // 读取超时时间
	WriteTimeout time.Duration `yaml:"writeTimeout"` // 写入超时时间
	IdleTimeout  time.Duration `yaml:"idleTimeout"`  // 空闲超时时间
}

// StorageConfig 存储配置
type StorageConfig struct {
	Kind       string         `yaml:"kind"`       // 存储类型：file / relational
	DataDir    string         `yaml:"dataDir"`    // 文件存储根目录
	Relational DatabaseConfig `yaml:"relational"` // 关系型数据库配置
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`          // 数据库驱动类型：mysql / postgres / sqlite
	Host            string        `yaml:"host"`            // 数据库主机地址
	Port            int           `yaml:"port"`            // 数据库端口
	Username        string        `yaml:"username"`        // 数据库用户名
	Password        string        `yaml:"password"`        // 数据库密码
	Database        string        `yaml:"database"`        // 数据库名称
	Charset         string        `yaml:"charset"`         // 字符集
	SSLMode         string        `yaml:"sslMode"`         // postgres sslmode
	Path            string        `yaml:"path"`            // sqlite 文件路径
	MaxIdle         int           `yaml:"maxIdle"`         // 最大空闲连接数
	MaxOpen         int           `yaml:"maxOpen"`         // 最大打开连接数
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"` // 连接最大生命周期
	LogSQL          bool          `yaml:"logSql"`          // 是否打印SQL
}

// AdminConfig 初始管理员配置
type AdminConfig struct {
	Username string `yaml:"username"` // 管理员用户名
	Password string `yaml:"password"` // 明文或bcrypt哈希
	Override bool   `yaml:"override"` // 是否允许覆盖已存在的管理员密码
}

// SessionConfig 会话配置
type SessionConfig struct {
	Backend       string        `yaml:"backend"`       // memory / redis
	TTL           time.Duration `yaml:"ttl"`           // 令牌空闲过期时间
	SweepInterval time.Duration `yaml:"sweepInterval"` // 过期令牌清理间隔
}

// VerificationConfig 邮箱验证码配置
type VerificationConfig struct {
	CodeTTL       time.Duration `yaml:"codeTtl"`       // 验证码有效期
	SweepInterval time.Duration `yaml:"sweepInterval"` // 过期验证码清理间隔
}

// AnnouncementConfig 公告配置
type AnnouncementConfig struct {
	DispatchInterval time.Duration `yaml:"dispatchInterval"` // 定时公告检查间隔
}

// MailConfig 邮件配置
type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`  // 未启用时只记录日志
	Host     string `yaml:"host"`     // SMTP主机
	Port     int    `yaml:"port"`     // SMTP端口
	Username string `yaml:"username"` // SMTP用户名
	Password string `yaml:"password"` // SMTP密码
	From     string `yaml:"from"`     // 发件人
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`      // 日志级别
	Filename   string `yaml:"filename"`   // 日志文件名
	MaxSize    int    `yaml:"maxSize"`    // 单个日志文件最大大小(MB)
	MaxBackups int    `yaml:"maxBackups"` // 最大备份文件数
	MaxAge     int    `yaml:"maxAge"`     // 最大保存天数
	Compress   bool   `yaml:"compress"`   // 是否压缩
	Console    bool   `yaml:"console"`    // 是否同时输出到控制台
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `yaml:"host"`     // Redis主机地址
	Port     int    `yaml:"port"`     // Redis端口
	Password string `yaml:"password"` // Redis密码
	DB       int    `yaml:"db"`       // Redis数据库编号
}

// Addr 返回 host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WebSocketConfig WebSocket 心跳配置
type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"pingInterval"` // 发送ping的间隔
	ReadTimeout  time.Duration `yaml:"readTimeout"`  // 读超时时间（未收到任何数据则断开）
}

// LoadConfig 加载配置（混合方式：YAML文件 + 环境变量）
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	// 1. 首先从YAML文件加载配置
	config, err := loadFromYAML(path)
	if err != nil {
		return nil, err
	}

	// 2. 用环境变量覆盖配置（环境变量优先级更高）
	overrideWithEnvVars(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// loadFromYAML 从YAML文件加载配置，文件缺失的字段保留默认值
func loadFromYAML(filePath string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// 文件不存在时使用默认配置
			return config, nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl 必须大于0")
	}
	if c.Session.SweepInterval <= 0 {
		return errors.New("session.sweepInterval 必须大于0")
	}
	switch strings.ToLower(c.Session.Backend) {
	case "memory", "redis":
	default:
		return fmt.Errorf("未知的会话存储类型: %q", c.Session.Backend)
	}
	if c.Verification.CodeTTL <= 0 {
		return errors.New("verification.codeTtl 必须大于0")
	}
	if c.Verification.SweepInterval <= 0 {
		return errors.New("verification.sweepInterval 必须大于0")
	}
	if c.Announcement.DispatchInterval <= 0 {
		return errors.New("announcement.dispatchInterval 必须大于0")
	}
	if c.Storage.DataDir == "" {
		return errors.New("storage.dataDir 不能为空")
	}
	return nil
}

// overrideWithEnvVars 用环境变量覆盖配置
func overrideWithEnvVars(config *Config) {
	// 服务器配置
	if port := getEnv("SERVER_PORT", ""); port != "" {
		config.Server.Port = port
	}
	if mode := getEnv("SERVER_MODE", ""); mode != "" {
		config.Server.Mode = mode
	}
	if timeout := getEnvDuration("SERVER_READ_TIMEOUT", 0); timeout > 0 {
		config.Server.ReadTimeout = timeout
	}
	if timeout := getEnvDuration("SERVER_WRITE_TIMEOUT", 0); timeout > 0 {
		config.Server.WriteTimeout = timeout
	}
	if timeout := getEnvDuration("SERVER_IDLE_TIMEOUT", 0); timeout > 0 {
		config.Server.IdleTimeout = timeout
	}

	// 存储配置
	if kind := getEnv("STORAGE_KIND", ""); kind != "" {
		config.Storage.Kind = kind
	}
	if dir := getEnv("STORAGE_DATA_DIR", ""); dir != "" {
		config.Storage.DataDir = dir
	}

	// 数据库配置
	if driver := getEnv("DB_DRIVER", ""); driver != "" {
		config.Storage.Relational.Driver = driver
	}
	if host := getEnv("DB_HOST", ""); host != "" {
		config.Storage.Relational.Host = host
	}
	if port := getEnvInt("DB_PORT", 0); port > 0 {
		config.Storage.Relational.Port = port
	}
	if username := getEnv("DB_USERNAME", ""); username != "" {
		config.Storage.Relational.Username = username
	}
	if password := getEnv("DB_PASSWORD", ""); password != "" {
		config.Storage.Relational.Password = password
	}
	if database := getEnv("DB_DATABASE", ""); database != "" {
		config.Storage.Relational.Database = database
	}
	if path := getEnv("DB_PATH", ""); path != "" {
		config.Storage.Relational.Path = path
	}
	if maxIdle := getEnvInt("DB_MAX_IDLE", 0); maxIdle > 0 {
		config.Storage.Relational.MaxIdle = maxIdle
	}
	if maxOpen := getEnvInt("DB_MAX_OPEN", 0); maxOpen > 0 {
		config.Storage.Relational.MaxOpen = maxOpen
	}

	// 管理员配置
	if username := getEnv("ADMIN_USERNAME", ""); username != "" {
		config.Admin.Username = username
	}
	if password := getEnv("ADMIN_PASSWORD", ""); password != "" {
		config.Admin.Password = password
	}
	config.Admin.Override = getEnvBool("ADMIN_OVERRIDE", config.Admin.Override)

	// 会话配置
	if backend := getEnv("SESSION_BACKEND", ""); backend != "" {
		config.Session.Backend = backend
	}
	if ttl := getEnvDuration("SESSION_TTL", 0); ttl > 0 {
		config.Session.TTL = ttl
	}

	// 邮件配置
	config.Mail.Enabled = getEnvBool("MAIL_ENABLED", config.Mail.Enabled)
	if host := getEnv("MAIL_HOST", ""); host != "" {
		config.Mail.Host = host
	}
	if port := getEnvInt("MAIL_PORT", 0); port > 0 {
		config.Mail.Port = port
	}
	if username := getEnv("MAIL_USERNAME", ""); username != "" {
		config.Mail.Username = username
	}
	if password := getEnv("MAIL_PASSWORD", ""); password != "" {
		config.Mail.Password = password
	}
	if from := getEnv("MAIL_FROM", ""); from != "" {
		config.Mail.From = from
	}

	// 日志配置
	if level := getEnv("LOG_LEVEL", ""); level != "" {
		config.Log.Level = level
	}
	if filename := getEnv("LOG_FILENAME", ""); filename != "" {
		config.Log.Filename = filename
	}
	if maxSize := getEnvInt("LOG_MAX_SIZE", 0); maxSize > 0 {
		config.Log.MaxSize = maxSize
	}
	if maxBackups := getEnvInt("LOG_MAX_BACKUPS", 0); maxBackups > 0 {
		config.Log.MaxBackups = maxBackups
	}
	if maxAge := getEnvInt("LOG_MAX_AGE", 0); maxAge > 0 {
		config.Log.MaxAge = maxAge
	}

	// Redis配置
	if host := getEnv("REDIS_HOST", ""); host != "" {
		config.Redis.Host = host
	}
	if port := getEnvInt("REDIS_PORT", 0); port > 0 {
		config.Redis.Port = port
	}
	if password := getEnv("REDIS_PASSWORD", ""); password != "" {
		config.Redis.Password = password
	}
	if db := getEnvInt("REDIS_DB", -1); db >= 0 {
		config.Redis.DB = db
	}

	// WebSocket配置
	if d := getEnvDuration("WS_PING_INTERVAL", 0); d > 0 {
		config.WebSocket.PingInterval = d
	}
	if d := getEnvDuration("WS_READ_TIMEOUT", 0); d > 0 {
		config.WebSocket.ReadTimeout = d
	}
}

// Default 获取默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Mode:         "release",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			Kind:    "file",
			DataDir: "data",
			Relational: DatabaseConfig{
				Driver:          "mysql",
				Host:            "localhost",
				Port:            3306,
				Username:        "ac_user",
				Database:        "ac_server",
				Charset:         "utf8mb4",
				SSLMode:         "disable",
				Path:            "data/ac_server.db",
				MaxIdle:         10,
				MaxOpen:         50,
				ConnMaxLifetime: time.Hour,
			},
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin123",
		},
		Session: SessionConfig{
			Backend:       "memory",
			TTL:           24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Verification: VerificationConfig{
			CodeTTL:       5 * time.Minute,
			SweepInterval: time.Minute,
		},
		Announcement: AnnouncementConfig{
			DispatchInterval: 30 * time.Second,
		},
		Mail: MailConfig{
			Port: 465,
		},
		Log: LogConfig{
			Level:      "info",
			Filename:   "logs/app.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
			Console:    true,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
		},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  90 * time.Second,
		},
	}
}

// 辅助函数：获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// 辅助函数：获取整数环境变量
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// 辅助函数：获取布尔环境变量
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// 辅助函数：获取时间环境变量
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
