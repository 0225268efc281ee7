package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig           `mapstructure:"server" json:"server"`
	API       APIConfig              `mapstructure:"api" json:"api"`
	Token     TokenConfig            `mapstructure:"token" json:"token"`
	Table     TableConfig            `mapstructure:"table" json:"table"`
	Views     ViewsConfig            `mapstructure:"views" json:"views"`
	Log       LogConfig              `mapstructure:"log" json:"log"`
	RateLimit RateLimitConfig        `mapstructure:"ratelimit" json:"ratelimit"`
	Modules   map[string]interface{} `mapstructure:"modules" json:"modules"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port" json:"port"`
	Mode string `mapstructure:"mode" json:"mode"`
	Host string `mapstructure:"host" json:"host"`
	// CORSOrigins 允许跨域访问的来源，* 表示任意来源
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
}

// APIConfig 后端API配置
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	Timeout int    `mapstructure:"timeout" json:"timeout"` // 秒
}

// TokenConfig 管理员令牌存储配置
type TokenConfig struct {
	Store         string `mapstructure:"store" json:"store"` // memory, file 或 redis
	Key           string `mapstructure:"key" json:"key"`
	File          string `mapstructure:"file" json:"file"`
	TTL           int    `mapstructure:"ttl" json:"ttl"` // 小时
	RedisAddr     string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisDB       int    `mapstructure:"redis_db" json:"redis_db"`
	RedisPassword string `mapstructure:"redis_password" json:"-"`
	RedisPrefix   string `mapstructure:"redis_prefix" json:"redis_prefix"`
}

// TableConfig 列表配置
type TableConfig struct {
	ItemsPerPage int `mapstructure:"items_per_page" json:"items_per_page"`
}

// ViewsConfig 视图配置目录
type ViewsConfig struct {
	Dir string `mapstructure:"dir" json:"dir"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"` // json 或 console
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	Type       string `mapstructure:"type" json:"type"` // redis 或 memory
	RedisAddr  string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisDB    int    `mapstructure:"redis_db" json:"redis_db"`
	RedisPass  string `mapstructure:"redis_pass" json:"-"`
	Prefix     string `mapstructure:"prefix" json:"prefix"`
	Rate       int    `mapstructure:"rate" json:"rate"`             // 窗口内允许的请求数
	Expiration int    `mapstructure:"expiration" json:"expiration"` // 窗口长度（秒）
}

// Load 加载配置文件
// 参数: path 配置文件路径，为空时在 ./config 和当前目录查找 config.yaml
// 返回值: *Config 配置对象, error 错误信息
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 设置默认值
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("api.base_url", "http://localhost:3001/api")
	v.SetDefault("api.timeout", 30)
	v.SetDefault("token.store", "file")
	v.SetDefault("token.key", "adminToken")
	v.SetDefault("token.file", defaultTokenFile())
	v.SetDefault("token.ttl", 24)
	v.SetDefault("token.redis_addr", "localhost:6379")
	v.SetDefault("token.redis_db", 0)
	v.SetDefault("token.redis_prefix", "vgo-ngo-admin")
	v.SetDefault("table.items_per_page", 10)
	v.SetDefault("views.dir", "./config/views")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.type", "memory")
	v.SetDefault("ratelimit.redis_addr", "localhost:6379")
	v.SetDefault("ratelimit.rate", 100)
	v.SetDefault("ratelimit.prefix", "ratelimit")
	v.SetDefault("ratelimit.expiration", 60)

	// 读取环境变量，api.base_url 同时兼容前端使用的变量名
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.base_url", "API_BASE_URL", "NEXT_PUBLIC_API_URL"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在，使用默认值
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate 校验配置取值
// 返回值: error 错误信息
func (c *Config) Validate() error {
	switch c.Token.Store {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unsupported token store: %s", c.Token.Store)
	}
	if c.Token.Store == "file" && c.Token.File == "" {
		return fmt.Errorf("token.file is required for the file token store")
	}
	if c.Table.ItemsPerPage < 1 {
		return fmt.Errorf("table.items_per_page must be positive, got %d", c.Table.ItemsPerPage)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %d", c.API.Timeout)
	}
	if c.RateLimit.Enabled && c.RateLimit.Type != "memory" && c.RateLimit.Type != "redis" {
		return fmt.Errorf("unsupported rate limiter type: %s", c.RateLimit.Type)
	}
	return nil
}

// defaultTokenFile 默认令牌文件位于用户目录
func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".vgo-ngo-admin", "session.json")
	}
	return filepath.Join(home, ".vgo-ngo-admin", "session.json")
}
