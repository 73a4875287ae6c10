package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aisgo/workshop-server/utils/id-generator/ulid"

	"github.com/aisgo/workshop-server/authz"
)

/* ========================================================================
 * Principal Cache - 主体缓存
 * ========================================================================
 * 职责: 缓存已解析的用户角色与能力, 避免每个请求都回表查询
 * 失效: 用户/角色变更时由 UserService 主动删除
 * ======================================================================== */

const principalKeyPrefix = "principal:"

// DefaultPrincipalTTL 主体缓存默认过期时间
const DefaultPrincipalTTL = 5 * time.Minute

// principalClaims 缓存存储格式
type principalClaims struct {
	UserID       int64    `json:"user_id"`
	WorkshopID   string   `json:"workshop_id"`
	Roles        []string `json:"roles"`
	Capabilities []string `json:"capabilities"`
}

// PrincipalCache 主体缓存
type PrincipalCache struct {
	client Clienter
	ttl    time.Duration
}

// NewPrincipalCache 创建主体缓存
func NewPrincipalCache(client *Client) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: DefaultPrincipalTTL}
}

// NewPrincipalCacheWith 创建主体缓存（自定义存储与 TTL, 测试用）
func NewPrincipalCacheWith(client Clienter, ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: ttl}
}

func principalKey(userID int64) string {
	return fmt.Sprintf("%s%d", principalKeyPrefix, userID)
}

// Get 读取缓存的主体, 未命中返回 (nil, nil)
func (c *PrincipalCache) Get(ctx context.Context, userID int64) (*authz.Principal, error) {
	raw, err := c.client.Get(ctx, principalKey(userID))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}

	var claims principalClaims
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		// 缓存内容损坏时当作未命中, 由调用方回源重建
		return nil, nil
	}

	wid, err := ulid.Parse(claims.WorkshopID)
	if err != nil {
		return nil, nil
	}

	p := authz.NewPrincipalFromClaims(claims.UserID, wid, claims.Roles, claims.Capabilities)
	return &p, nil
}

// Put 缓存主体
func (c *PrincipalCache) Put(ctx context.Context, p authz.Principal) error {
	claims := principalClaims{
		UserID:       p.UserID,
		WorkshopID:   p.WorkshopID.String(),
		Roles:        p.Roles,
		Capabilities: p.Capabilities(),
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, principalKey(p.UserID), string(raw), c.ttl)
}

// Invalidate 删除缓存的主体（用户被禁用、角色变更时调用）
func (c *PrincipalCache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, principalKey(userID))
}
