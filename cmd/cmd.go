package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/internal/middleware"
	"github.com/vera-byte/vgo-ngo-admin/internal/module"
	"github.com/vera-byte/vgo-ngo-admin/modules/admin"
	"github.com/vera-byte/vgo-ngo-admin/modules/site"
)

// RootCmd 根命令
var RootCmd = NewRootCmd()

// NewRootCmd 创建根命令及全部子命令
// 返回值: *cobra.Command 根命令
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "vgo-ngo-admin",
		Short:         "NGO admin console and API server",
		Long:          `vgo-ngo-admin manages campaigns, events, team, careers, donations and volunteer records of the NGO backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default ./config/config.yaml)")
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "backend API base URL")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newServerCmd(flags))
	addConsoleCommands(root, flags)
	return root
}

// newServerCmd 服务器启动命令
func newServerCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the admin API server",
		Long:  `Start the HTTP server exposing the admin and site modules.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, flags)
		},
	}
}

// newModuleRegistry 注册内置模块工厂
func newModuleRegistry(logger *zap.Logger) (*module.ModuleRegistry, error) {
	registry := module.NewModuleRegistry(logger)
	factories := []module.ModuleFactory{
		admin.NewAdminModuleFactory(),
		site.NewSiteModuleFactory(),
	}
	for _, f := range factories {
		if err := registry.RegisterFactory(f); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// buildRouter 创建gin引擎并挂载中间件和模块路由
// 参数: ctx 上下文, a 依赖集合, manager 模块管理器
// 返回值: *gin.Engine 引擎, []string 全局中间件名称, error 错误信息
func buildRouter(ctx context.Context, a *app, manager *module.Manager) (*gin.Engine, []string, error) {
	router := gin.New()
	middlewareNames := []string{"middleware.RequestID", "middleware.Logger", "gin.Recovery", "middleware.CORS"}
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.logger.Named("http")))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(a.cfg.Server.CORSOrigins))

	// 添加限流中间件
	if a.cfg.RateLimit.Enabled {
		a.logger.Info("Initializing rate limiter", zap.String("type", a.cfg.RateLimit.Type))
		rateLimiter, err := middleware.NewRateLimiter(a.cfg.RateLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
		router.Use(middleware.RateLimitMiddleware(rateLimiter, middleware.DefaultKeyFunc))
		middlewareNames = append(middlewareNames, "middleware.RateLimit")
		a.logger.Info("Rate limiter enabled")
	}

	// 健康检查路由
	router.GET("/health", func(c *gin.Context) {
		health := manager.HealthCheck(c.Request.Context())
		modules := make(map[string]string, len(health))
		status := "healthy"
		for name, err := range health {
			modules[name] = "ok"
			if err != nil {
				modules[name] = err.Error()
				status = "unhealthy"
			}
		}
		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "modules": modules, "backend": a.server.BaseURL()})
	})

	apiGroup := router.Group("/api/v1")
	if err := manager.RegisterRoutes(apiGroup, a.logger); err != nil {
		return nil, nil, fmt.Errorf("failed to register module routes: %w", err)
	}
	return router, middlewareNames, nil
}

// runServer 启动服务器
// cmd: cobra命令实例
// flags: 全局参数
func runServer(cmd *cobra.Command, flags *rootFlags) error {
	a, err := newApp(cmd, flags, "")
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	logger.Info("Starting vgo-ngo-admin server...", zap.String("backend", a.cfg.API.BaseURL))
	gin.SetMode(a.cfg.Server.Mode)

	// 创建模块管理器
	registry, err := newModuleRegistry(logger)
	if err != nil {
		return err
	}
	moduleManager := module.NewManager(logger)
	if err := registry.Populate(moduleManager, a.dependencies()); err != nil {
		return err
	}

	// 初始化所有模块
	ctx := context.Background()
	if err := moduleManager.InitializeAll(ctx, a.cfg.Modules); err != nil {
		return err
	}
	logger.Info("All modules initialized successfully")

	router, middlewareNames, err := buildRouter(ctx, a, moduleManager)
	if err != nil {
		return err
	}

	addr := a.cfg.Server.Host + ":" + a.cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	printServerInfo(cmd.OutOrStdout(), router, middlewareNames, moduleManager)

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	logger.Info("Shutting down server...")

	// 关闭所有模块
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := moduleManager.ShutdownAll(shutdownCtx); err != nil {
		logger.Error("Error shutting down modules", zap.Error(err))
	}

	// 优雅关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

// RouteDetail 路由详细信息
type RouteDetail struct {
	Method  string
	Path    string
	Handler string
}

// getRouteDetails 获取路由详细信息，按路径排序
// router: Gin引擎实例
// 返回值: []RouteDetail 路由详细信息列表
func getRouteDetails(router *gin.Engine) []RouteDetail {
	routes := router.Routes()
	details := make([]RouteDetail, 0, len(routes))
	for _, route := range routes {
		details = append(details, RouteDetail{
			Method:  route.Method,
			Path:    route.Path,
			Handler: route.Handler,
		})
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].Path == details[j].Path {
			return details[i].Method < details[j].Method
		}
		return details[i].Path < details[j].Path
	})
	return details
}

// printServerInfo 输出路由、中间件和模块信息
func printServerInfo(w io.Writer, router *gin.Engine, middlewareNames []string, manager *module.Manager) {
	fmt.Fprintln(w, "=== vgo-ngo-admin Server Information ===")
	printRouteDetailsTable(w, getRouteDetails(router))

	fmt.Fprintf(w, "\nGlobal middlewares (%d): %v\n", len(middlewareNames), middlewareNames)
	printModuleTable(w, manager.ListModules())
}

// newInfoTable 创建统一样式的表格
func newInfoTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// printRouteDetailsTable 输出路由详细信息表格
func printRouteDetailsTable(w io.Writer, details []RouteDetail) {
	table := newInfoTable(w, []string{"Method", "Path", "Handler"})
	for _, detail := range details {
		// 截断过长的处理器名称
		handler := detail.Handler
		if len(handler) > 60 {
			handler = handler[:57] + "..."
		}
		table.Append([]string{detail.Method, detail.Path, handler})
	}

	fmt.Fprintln(w, "\nRoute Details:")
	table.Render()
}

// printModuleTable 输出模块信息表格
func printModuleTable(w io.Writer, modules []module.ModuleInfo) {
	if len(modules) == 0 {
		fmt.Fprintln(w, "\nNo modules registered.")
		return
	}

	table := newInfoTable(w, []string{"Name", "Version", "Description", "Status"})
	for _, m := range modules {
		status := "Enabled"
		if !m.Enabled {
			status = "Disabled"
		}
		description := m.Description
		if len(description) > 40 {
			description = description[:37] + "..."
		}
		table.Append([]string{m.Name, m.Version, description, status})
	}

	fmt.Fprintln(w, "\nModules:")
	table.Render()
}
