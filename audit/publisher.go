package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/aisgo/workshop-server/logger"
)

// Publisher 审计事件发布接口
type Publisher interface {
	// Publish 发布事件, 失败只记录日志, 不阻断业务写入
	Publish(ctx context.Context, event Event) error

	// Close 关闭发布器
	Close() error
}

// NoopPublisher 空实现
// 未配置 Kafka 时使用, 事件仅落日志
type NoopPublisher struct {
	log *logger.Logger
}

// NewNoopPublisher 创建空发布器
func NewNoopPublisher(log *logger.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

// Publish 记录事件到日志
func (p *NoopPublisher) Publish(_ context.Context, event Event) error {
	p.log.Debug("audit event",
		zap.String("workshop_id", event.WorkshopID),
		zap.String("action", event.Action),
		zap.String("entity_type", event.EntityType),
		zap.Int64("entity_id", event.EntityID),
	)
	return nil
}

// Close 无操作
func (p *NoopPublisher) Close() error {
	return nil
}
