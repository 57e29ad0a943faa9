// Package identity carries the authenticated actor through request context.
// Who the actor is comes from the external identity provider; the core only
// needs a user id and role.
package identity

import "context"

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID string
	Role   string
}

type ctxKey string

const actorKey ctxKey = "clinicdesk.actor"

// WithActor stores the actor in context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the actor if present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	val := ctx.Value(actorKey)
	if val == nil {
		return Actor{}, false
	}
	actor, ok := val.(Actor)
	return actor, ok && actor.UserID != ""
}
