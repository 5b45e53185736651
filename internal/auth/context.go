package auth

import (
	"context"

	"github.com/gamereviews/gamereviews/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userIDKey contextKey = "user_id"

// ContextWithUserID returns a copy of ctx carrying the authenticated user.
func ContextWithUserID(ctx context.Context, id model.UserID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (model.UserID, bool) {
	id, ok := ctx.Value(userIDKey).(model.UserID)
	if !ok || id.IsZero() {
		return "", false
	}
	return id, true
}

// MustUserIDFromContext returns the authenticated user.
// Panics if not present (use only behind the auth middleware).
func MustUserIDFromContext(ctx context.Context) model.UserID {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		panic("user id not found in context - ensure auth middleware is applied")
	}
	return id
}
