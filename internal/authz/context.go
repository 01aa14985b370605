package authz

import (
	"context"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "user_id"

// WithIdentity stores the authenticated user's id on the context. An empty
// id is not stored, so guest requests simply resolve to no identity.
func WithIdentity(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromRequest returns the authenticated user id, if any. ok=false
// means the request carries no resolved identity (guest or unauthenticated).
func UserIDFromRequest(r *http.Request) (string, bool) {
	uid, ok := r.Context().Value(userIDKey).(string)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}
