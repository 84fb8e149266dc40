package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

type contextKey string

const actorKey contextKey = "actor"

// Identity headers set by the api-gateway after JWT validation. The service
// trusts them because only the gateway can reach it.
const (
	HeaderUserID      = "X-User-ID"
	HeaderUsername    = "X-Username"
	HeaderUserRole    = "X-User-Role"
	HeaderPermissions = "X-Permissions"
)

// ActorFromContext returns the acting user resolved by ActorMiddleware. The
// zero Actor means an unauthenticated request slipped through.
func ActorFromContext(ctx context.Context) domain.Actor {
	if actor, ok := ctx.Value(actorKey).(domain.Actor); ok {
		return actor
	}
	return domain.Actor{}
}

func actorFromHeaders(r *http.Request) (domain.Actor, bool) {
	rawID := r.Header.Get(HeaderUserID)
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || id == 0 {
		return domain.Actor{}, false
	}

	actor := domain.Actor{
		ID:       uint(id),
		Username: r.Header.Get(HeaderUsername),
		Role:     strings.ToLower(r.Header.Get(HeaderUserRole)),
	}
	if raw := r.Header.Get(HeaderPermissions); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				actor.Permissions = append(actor.Permissions, p)
			}
		}
	}
	return actor, true
}

// ActorMiddleware resolves the acting user from the gateway identity headers
func ActorMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromHeaders(r)
		if !ok {
			respondJSON(w, http.StatusUnauthorized, Response{
				Success: false,
				Error:   "Missing or invalid identity headers",
			})
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, actor)
		next(w, r.WithContext(ctx))
	}
}

// AdminMiddleware requires an admin or manager role
func AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return ActorMiddleware(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFromContext(r.Context())
		if !actor.Privileged() {
			respondJSON(w, http.StatusForbidden, Response{
				Success: false,
				Error:   "Admin access required",
			})
			return
		}
		next(w, r)
	})
}
