package middleware

import (
	"context"
	"net/http"
)

// Actor is the caller identity attached to every API request. The role
// and entity come from request headers set by the device frontends,
// operators default to their own entity scope, admins see everything.
type Actor struct {
	Role   string
	Entity string
}

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

type contextKey string

const actorKey contextKey = "actor"

// WithActor reads the actor headers and stores the actor in the request
// context. Requests without headers run as an unscoped operator.
func WithActor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := Actor{
				Role:   r.Header.Get("X-Actor-Role"),
				Entity: r.Header.Get("X-Actor-Entity"),
			}
			if actor.Role == "" {
				actor.Role = RoleOperator
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom extracts the actor stored by WithActor. Returns an unscoped
// operator when the middleware did not run.
func ActorFrom(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey).(Actor); ok {
		return actor
	}
	return Actor{Role: RoleOperator}
}

// RequireAdmin rejects requests whose actor is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFrom(r.Context()).Role != RoleAdmin {
			http.Error(w, `{"error":"admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
