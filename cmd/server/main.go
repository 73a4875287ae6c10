package main

import (
	"github.com/aisgo/workshop-server/audit"
	"github.com/aisgo/workshop-server/cache"
	"github.com/aisgo/workshop-server/conf"
	"github.com/aisgo/workshop-server/database"
	"github.com/aisgo/workshop-server/database/postgres"
	"github.com/aisgo/workshop-server/handler"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/middleware"
	"github.com/aisgo/workshop-server/service"
	transporthttp "github.com/aisgo/workshop-server/transport/http"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gorm.io/gorm"
)

/* ========================================================================
 * Workshop Server - 服务入口
 * ========================================================================
 * 启动顺序: 配置 -> 日志 -> 存储 -> 业务服务 -> HTTP
 * 迁移与 RBAC 种子在 OnStart 内执行, 失败即中止启动
 * ======================================================================== */

func main() {
	fx.New(
		conf.Module,
		fx.Provide(logger.NewLogger),
		fx.WithLogger(func(log *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Logger}
		}),

		postgres.Module,
		cache.Module,
		audit.Module,
		service.Module,
		middleware.Module,
		handler.Module,
		fx.Provide(transporthttp.NewHTTPServer),

		fx.Invoke(runMigrations),
		fx.Invoke(func(*fiber.App) {}),
	).Run()
}

func runMigrations(lc fx.Lifecycle, db *gorm.DB) {
	lc.Append(fx.StartHook(func() error {
		if err := database.Migrate(db); err != nil {
			return err
		}
		return database.SeedRBAC(db)
	}))
}
