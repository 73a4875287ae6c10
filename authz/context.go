package authz

import (
	"context"

	"github.com/aisgo/workshop-server/errors"
)

type principalCtxKey struct{}

// WithPrincipal 将主体注入 context
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext 从 context 读取主体
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalCtxKey{})
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// MustPrincipal 读取主体, 缺失时返回未认证错误
func MustPrincipal(ctx context.Context) (Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, errors.ErrUnauthenticated
	}
	return p, nil
}
