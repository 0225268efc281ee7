package cmd

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/internal/config"
	"github.com/vera-byte/vgo-ngo-admin/internal/logger"
	"github.com/vera-byte/vgo-ngo-admin/internal/module"
	"github.com/vera-byte/vgo-ngo-admin/pkg/client"
)

// rootFlags 全局命令行参数
type rootFlags struct {
	configPath string
	baseURL    string
	logLevel   string
}

// app 命令运行所需的依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client client.Client
	// server 不带令牌存储，服务端请求只使用调用方会话
	server   client.Client
	public   client.Client
	sessions client.SessionStores
	views    *config.ViewConfigManager
	closer   func() error
}

// newApp 按配置和命令行参数组装依赖
// 参数: cmd 当前命令, flags 全局参数, defaultLevel 未指定日志级别时使用的级别
// 返回值: *app 依赖集合, error 错误信息
func newApp(cmd *cobra.Command, flags *rootFlags, defaultLevel string) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.baseURL != "" {
		cfg.API.BaseURL = flags.baseURL
	}
	switch {
	case cmd.Flags().Changed("log-level"):
		cfg.Log.Level = flags.logLevel
	case defaultLevel != "":
		cfg.Log.Level = defaultLevel
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	store, sessions, closer, err := newTokenStore(cfg.Token)
	if err != nil {
		return nil, err
	}

	clientCfg := client.Config{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  time.Duration(cfg.API.Timeout) * time.Second,
		TokenTTL: time.Duration(cfg.Token.TTL) * time.Hour,
	}
	admin, err := client.NewClient(clientCfg, client.WithTokenStore(store), client.WithLogger(log.Named("client")))
	if err != nil {
		_ = closer()
		return nil, err
	}
	server, err := client.NewClient(clientCfg, client.WithLogger(log.Named("admin-client")))
	if err != nil {
		_ = closer()
		return nil, err
	}
	public, err := client.NewClient(clientCfg, client.WithLogger(log.Named("site-client")))
	if err != nil {
		_ = closer()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   log,
		client:   admin,
		server:   server,
		public:   public,
		sessions: sessions,
		views:    config.NewViewConfigManager(cfg.Views.Dir, cfg.Table.ItemsPerPage, log.Named("views")),
		closer:   closer,
	}, nil
}

// dependencies 服务端模块共享依赖
func (a *app) dependencies() module.Dependencies {
	return module.Dependencies{
		Client:   a.server,
		Public:   a.public,
		Sessions: a.sessions,
		Views:    a.views,
		Config:   a.cfg,
	}
}

// Close 释放连接并刷新日志
func (a *app) Close() {
	if err := a.closer(); err != nil {
		a.logger.Warn("Failed to close token store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// newTokenStore 按配置创建命令行令牌存储和服务端会话存储
// 服务端会话仅在redis模式下跨实例共享，其余模式保存在进程内
// 返回值: client.TokenStore 令牌存储, client.SessionStores 会话存储, func() error 关闭函数, error 错误信息
func newTokenStore(cfg config.TokenConfig) (client.TokenStore, client.SessionStores, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store {
	case "memory":
		return client.NewMemoryTokenStore(), client.NewMemorySessionStores(), noop, nil
	case "file":
		return client.NewFileTokenStore(cfg.File, cfg.Key), client.NewMemorySessionStores(), noop, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		})
		return client.NewRedisTokenStore(rdb, cfg.RedisPrefix, cfg.Key), client.NewRedisSessionStores(rdb, cfg.RedisPrefix), rdb.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported token store: %s", cfg.Store)
	}
}
