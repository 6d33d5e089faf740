// Package trace carries a per-request trace id through the context.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Header is echoed on every response.
const Header = "X-Trace-ID"

func NewID() string {
	return uuid.NewString()
}

func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the id stored by With, or "".
func From(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}
