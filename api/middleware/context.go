package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxCapabilities contextKey = "capabilities"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// ActorIDFromContext returns the authenticated user id, or uuid.Nil when the
// request is anonymous or carries a malformed id.
func ActorIDFromContext(ctx context.Context) uuid.UUID {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

func CapabilitiesFromContext(ctx context.Context) enums.CapabilitySet {
	if ctx == nil {
		return enums.CapabilitySet{}
	}
	if v, ok := ctx.Value(ctxCapabilities).(enums.CapabilitySet); ok {
		return v
	}
	return enums.CapabilitySet{}
}

// WithActor seeds the context with an authenticated actor and the
// capabilities of its role.
func WithActor(ctx context.Context, userID string, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxCapabilities, enums.CapabilitiesFor(role))
}
