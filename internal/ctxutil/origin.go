// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// OriginKey is the context key for the name of the view that started an
// operation. Exported so it can be used consistently across packages.
type OriginKey struct{}

// WithOrigin returns a context tagged with the originating view.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, OriginKey{}, origin)
}

// OriginFromContext returns the originating view, or empty string if not set.
func OriginFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(OriginKey{}).(string); ok {
		return v
	}
	return ""
}
