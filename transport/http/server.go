package http

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/aisgo/workshop-server/cache/redis"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/metrics"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

/* ========================================================================
 * HTTP Server - Fiber v3 HTTP 服务器
 * ========================================================================
 * 职责: HTTP 服务, 健康检查, 指标暴露
 * 技术: Fiber v3
 * ======================================================================== */

// Config HTTP 服务器配置
type Config struct {
	Port               int           `yaml:"port" mapstructure:"port"`
	Host               string        `yaml:"host" mapstructure:"host"`
	AppName            string        `yaml:"app_name" mapstructure:"app_name"`
	ReadTimeout        time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	HealthCheckTimeout time.Duration `yaml:"health_check_timeout" mapstructure:"health_check_timeout"`

	// EnableRecover 是否启用 Panic 恢复中间件，默认 true
	// 设为 false 可在开发/测试环境直接暴露 panic，便于问题定位
	EnableRecover *bool `yaml:"enable_recover" mapstructure:"enable_recover"`

	Listen ListenOptions `yaml:"listen" mapstructure:"listen"`
}

// ListenOptions 包含可通过 YAML 配置的监听选项
type ListenOptions struct {
	DisableStartupMessage bool `yaml:"disable_startup_message" mapstructure:"disable_startup_message"`

	// 监听网络类型 (tcp, tcp4, tcp6), 默认 tcp4
	ListenerNetwork string `yaml:"listener_network" mapstructure:"listener_network"`

	CertFile    string `yaml:"cert_file" mapstructure:"cert_file"`
	CertKeyFile string `yaml:"cert_key_file" mapstructure:"cert_key_file"`

	// 优雅关闭超时时间，默认 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// RouteRegistrar 在服务器构建时挂载路由
// handler 层提供实现, 避免 transport 依赖具体业务
type RouteRegistrar interface {
	Register(app *fiber.App)
}

type ServerParams struct {
	fx.In
	Lc     fx.Lifecycle
	Config Config
	Logger *logger.Logger
	DB     *gorm.DB      `optional:"true"` // 就绪探针用, 可选
	Cache  *redis.Client `optional:"true"` // 就绪探针用, 可选

	ErrorHandler fiber.ErrorHandler `optional:"true"`

	// Registrars 按注册顺序挂载路由与中间件
	Registrars []RouteRegistrar `group:"routes"`
}

// NewHTTPServer 创建 HTTP 服务器并注册生命周期
func NewHTTPServer(p ServerParams) *fiber.App {
	readTimeout := p.Config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := p.Config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	idleTimeout := p.Config.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 120 * time.Second
	}
	appName := p.Config.AppName
	if appName == "" {
		appName = "Workshop Server"
	}

	appConfig := fiber.Config{
		AppName:      appName,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	if p.ErrorHandler != nil {
		appConfig.ErrorHandler = p.ErrorHandler
	}

	app := fiber.New(appConfig)

	enableRecover := true
	if p.Config.EnableRecover != nil {
		enableRecover = *p.Config.EnableRecover
	}
	if enableRecover {
		app.Use(recoverer.New(recoverer.Config{
			EnableStackTrace: true,
			StackTraceHandler: func(c fiber.Ctx, e interface{}) {
				p.Logger.Error("Panic recovered",
					zap.Any("error", e),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
					zap.String("ip", c.IP()),
				)
			},
		}))
	}

	healthCheckTimeout := p.Config.HealthCheckTimeout
	if healthCheckTimeout <= 0 {
		healthCheckTimeout = 2 * time.Second
	}
	registerHealthEndpoints(app, p.DB, p.Cache, healthCheckTimeout)

	metrics.RegisterMetricsEndpoint(app)

	for _, r := range p.Registrars {
		r.Register(app)
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Config.Port)
			if p.Config.Host != "" {
				addr = fmt.Sprintf("%s:%d", p.Config.Host, p.Config.Port)
			}

			listenConfig := buildListenConfig(p.Config.Listen)

			// 预先创建 net.Listener, 让端口占用在 OnStart 内同步报错
			listener, err := createListener(addr, listenConfig)
			if err != nil {
				p.Logger.Error("Failed to create HTTP listener", zap.Error(err), zap.String("addr", addr))
				return fmt.Errorf("failed to bind to %s: %w", addr, err)
			}

			readyChan := make(chan struct{})
			errChan := make(chan error, 1)

			go func() {
				close(readyChan)

				p.Logger.Info("Starting HTTP Server", zap.String("addr", addr))
				if err := app.Listener(listener, listenConfig); err != nil {
					p.Logger.Error("HTTP Server failed", zap.Error(err))
					errChan <- err
				}
			}()

			select {
			case <-readyChan:
				return nil
			case err := <-errChan:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Stopping HTTP Server")
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

func buildListenConfig(opts ListenOptions) fiber.ListenConfig {
	config := fiber.ListenConfig{
		DisableStartupMessage: opts.DisableStartupMessage,
		CertFile:              opts.CertFile,
		CertKeyFile:           opts.CertKeyFile,
	}

	if opts.ListenerNetwork != "" {
		config.ListenerNetwork = opts.ListenerNetwork
	} else {
		config.ListenerNetwork = "tcp4"
	}
	if opts.ShutdownTimeout > 0 {
		config.ShutdownTimeout = opts.ShutdownTimeout
	}

	return config
}

/* ========================================================================
 * Health Check Endpoints
 * ========================================================================
 * /healthz - 存活探针: 进程能响应即 200
 * /readyz  - 就绪探针: 检查数据库与缓存依赖
 * ======================================================================== */

func registerHealthEndpoints(app *fiber.App, db *gorm.DB, cache *redis.Client, timeout time.Duration) {
	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	app.Get("/readyz", func(c fiber.Ctx) error {
		checks := make(map[string]string)
		healthy := true

		if db != nil {
			sqlDB, err := db.DB()
			if err != nil {
				checks["database"] = "error: " + err.Error()
				healthy = false
			} else {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				if err := sqlDB.PingContext(ctx); err != nil {
					checks["database"] = "error: " + err.Error()
					healthy = false
				} else {
					checks["database"] = "ok"
				}
			}
		}

		if cache != nil {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				// 缓存是弱依赖: 降级运行, 只上报状态
				checks["redis"] = "error: " + err.Error()
			} else {
				checks["redis"] = "ok"
			}
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		checks["memory_alloc_mb"] = fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024)
		checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

		status := "ok"
		statusCode := fiber.StatusOK
		if !healthy {
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
			"checks": checks,
		})
	})
}
