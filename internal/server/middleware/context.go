// Package middleware holds the HTTP middleware shared by every route: bearer
// authentication, request identity in context, and request telemetry.
package middleware

import "context"

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	sessionIDKey = contextKey{"session_id"}
	slotKey      = contextKey{"identity_slot"}
)

// identitySlot lets outer middleware observe the identity resolved by inner auth middleware.
type identitySlot struct {
	userID    string
	sessionID string
}

// WithIdentity returns a context carrying the authenticated user and session ids.
func WithIdentity(ctx context.Context, userID, sessionID string) context.Context {
	if slot, ok := ctx.Value(slotKey).(*identitySlot); ok {
		slot.userID, slot.sessionID = userID, sessionID
	}
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// GetUserID returns the authenticated user id, if any.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// GetSessionID returns the authenticated session id, if any.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok && v != ""
}

func withSlot(ctx context.Context) (context.Context, *identitySlot) {
	slot := &identitySlot{}
	return context.WithValue(ctx, slotKey, slot), slot
}
