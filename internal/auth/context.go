package auth

import "context"

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

// ContextKeyVerified marks requests whose anti-forgery token was checked.
const ContextKeyVerified ContextKey = "tokenVerified"

func ContextWithVerified(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyVerified, true)
}

func VerifiedFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(ContextKeyVerified).(bool)
	return v
}
