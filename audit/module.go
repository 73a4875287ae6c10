package audit

import (
	"context"

	"go.uber.org/fx"

	"github.com/aisgo/workshop-server/logger"
)

/* ========================================================================
 * Audit Module
 * ========================================================================
 * 职责: 按配置提供 Kafka 或 Noop 审计发布器
 * ======================================================================== */

// NewPublisher 创建审计发布器
// Kafka 未启用时回退到 Noop 实现
func NewPublisher(lc fx.Lifecycle, cfg Config, log *logger.Logger) (Publisher, error) {
	if !cfg.Enabled {
		log.Info("audit publishing disabled, events go to log only")
		return NewNoopPublisher(log), nil
	}

	pub, err := NewKafkaPublisher(cfg, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})

	return pub, nil
}

// Module 审计模块
// 提供: Publisher
var Module = fx.Module("audit",
	fx.Provide(NewPublisher),
)
