// Package ctxkeys holds the context keys shared by the api package, its
// middleware, and its handlers. It is a leaf package to avoid import cycles.
package ctxkeys

import "context"

// Key is the named type for all API context keys.
// context.Value compares both type and value, so string keys from other
// packages cannot collide.
type Key string

const (
	// ClientID is the authenticated API client. Injected by the auth
	// middleware from the token's client_id claim.
	ClientID Key = "client_id"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// String returns the string stored under key, if any and non-empty.
func String(ctx context.Context, key Key) (string, bool) {
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
