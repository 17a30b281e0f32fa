package identity

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Principal is the authenticated caller as supplied by the upstream
// gateway. Credential issuance and validation live outside this service.
type Principal struct {
	UserID    snowflake.ID
	IsBlender bool
	IsAdmin   bool
}

type principalKey struct{}

// WithPrincipal stores the request principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the request principal, if set.
func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == 0 {
		return Principal{}, false
	}
	return p, true
}

// CanBlend reports whether the principal may record non-air fills.
func (p Principal) CanBlend() bool {
	return p.IsBlender || p.IsAdmin
}
