package repository

import (
	"context"

	"github.com/aisgo/workshop-server/utils/id-generator/ulid"
)

// TenantContext carries the acting principal's workshop claims for
// repository enforcement. It is always passed explicitly through
// context.Context, never read from request-bound globals.
type TenantContext struct {
	WorkshopID ulid.ULID
	UserID     int64
	Roles      []string
}

type tenantCtxKey struct{}

// WithTenantContext injects TenantContext into context.Context.
func WithTenantContext(ctx context.Context, tc TenantContext) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tc)
}

// TenantFromContext reads TenantContext from context.Context.
func TenantFromContext(ctx context.Context) (TenantContext, bool) {
	v := ctx.Value(tenantCtxKey{})
	if v == nil {
		return TenantContext{}, false
	}
	tc, ok := v.(TenantContext)
	return tc, ok
}
