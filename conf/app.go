package conf

import (
	"os"

	"github.com/aisgo/workshop-server/audit"
	"github.com/aisgo/workshop-server/cache/redis"
	"github.com/aisgo/workshop-server/database/postgres"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/middleware"
	transporthttp "github.com/aisgo/workshop-server/transport/http"

	"go.uber.org/fx"
)

/* ========================================================================
 * App Config - 应用配置聚合
 * ========================================================================
 * 职责: 把各模块的配置段聚合成一份文件, 统一加载后拆发给 fx
 * 配置目录: WORKSHOP_CONFIG_DIR 环境变量, 默认 ./configs
 * ======================================================================== */

// AppConfig 应用全量配置
type AppConfig struct {
	Server   transporthttp.Config             `yaml:"server" mapstructure:"server"`
	Logger   logger.Config                    `yaml:"logger" mapstructure:"logger"`
	Database postgres.Config                  `yaml:"database" mapstructure:"database"`
	Redis    redis.Config                     `yaml:"redis" mapstructure:"redis"`
	Audit    audit.Config                     `yaml:"audit" mapstructure:"audit"`
	Auth     middleware.GatewayVerifierConfig `yaml:"auth" mapstructure:"auth"`
}

// LoadAppConfig 加载应用配置
func LoadAppConfig() (*AppConfig, error) {
	dir := os.Getenv("WORKSHOP_CONFIG_DIR")
	if dir == "" {
		dir = "./configs"
	}

	cfg := &AppConfig{}
	loader := NewLoader(dir, "config", "yaml")
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Module 配置模块: 加载一次, 各配置段按类型提供
var Module = fx.Module("conf",
	fx.Provide(
		LoadAppConfig,
		func(c *AppConfig) transporthttp.Config { return c.Server },
		func(c *AppConfig) logger.Config { return c.Logger },
		func(c *AppConfig) postgres.Config { return c.Database },
		func(c *AppConfig) redis.Config { return c.Redis },
		func(c *AppConfig) audit.Config { return c.Audit },
		func(c *AppConfig) *middleware.GatewayVerifierConfig { return &c.Auth },
	),
)
