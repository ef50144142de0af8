package httpx

import (
	"context"

	domainauth "github.com/dtapi/booking-engine/internal/domain/auth"
)

// actorKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type actorKey struct{}

// SetActorInContext returns a child context that carries the given actor.
func SetActorInContext(ctx context.Context, actor domainauth.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActorFromContext returns the actor from context and a boolean indicating presence.
func GetActorFromContext(ctx context.Context) (domainauth.Actor, bool) {
	if actor, ok := ctx.Value(actorKey{}).(domainauth.Actor); ok && actor.ID != "" {
		return actor, true
	}
	return domainauth.Actor{}, false
}
