package auth

import (
	"context"
)

// AnonymousOperator is the principal name used when API keys are not required
const AnonymousOperator = "operator"

// Principal carries authenticated caller metadata derived from the API key
// NOTE: Do not place secrets or raw API keys here.
type Principal struct {
	Operator string
	KeyID    string
}

type principalKeyType struct{}

var principalKey = principalKeyType{}

// WithPrincipal attaches principal to context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal retrieves principal from context (nil if absent)
func GetPrincipal(ctx context.Context) *Principal {
	v := ctx.Value(principalKey)
	if v == nil {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}

// OperatorName returns who is acting in ctx, falling back to the anonymous
// operator when no principal is attached.
func OperatorName(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil && p.Operator != "" {
		return p.Operator
	}
	return AnonymousOperator
}
