package middleware

import (
	"context"
	"time"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxTokenID      contextKey = "token_id"
	ctxTokenExpires contextKey = "token_expires_at"
)

// UserIDFromContext returns the authenticated subject (the identity provider uid).
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// TokenFromContext returns the jti and expiry of the presented access token.
func TokenFromContext(ctx context.Context) (string, time.Time) {
	if ctx == nil {
		return "", time.Time{}
	}
	id, _ := ctx.Value(ctxTokenID).(string)
	expires, _ := ctx.Value(ctxTokenExpires).(time.Time)
	return id, expires
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role, used by tests and internal callers.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

func withToken(ctx context.Context, id string, expires time.Time) context.Context {
	ctx = context.WithValue(ctx, ctxTokenID, id)
	return context.WithValue(ctx, ctxTokenExpires, expires)
}
