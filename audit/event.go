package audit

import (
	"time"

	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
)

/* ========================================================================
 * Audit Event - 审计事件
 * ========================================================================
 * 职责: 定义审计事件结构与动作常量
 * ======================================================================== */

// 审计动作
const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionStatusChange = "status_change"
	ActionRegister     = "register"
	ActionLogin        = "login"
)

// Event 审计事件
// 每次写操作发布一条, 按 workshop_id 分区保证单店内有序
type Event struct {
	ID         string         `json:"id"`
	WorkshopID string         `json:"workshop_id"`
	ActorID    int64          `json:"actor_id,string"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   int64          `json:"entity_id,string"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEvent 创建审计事件
func NewEvent(workshopID ulid.ULID, actorID int64, action, entityType string, entityID int64) Event {
	return Event{
		ID:         ulid.Generate().String(),
		WorkshopID: workshopID.String(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OccurredAt: time.Now(),
	}
}

// WithDetail 附加明细字段
func (e Event) WithDetail(key string, value any) Event {
	if e.Detail == nil {
		e.Detail = make(map[string]any)
	}
	e.Detail[key] = value
	return e
}
