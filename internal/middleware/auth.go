package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/buildhive/buildhive-backend/internal/engine"
	"github.com/buildhive/buildhive-backend/internal/models"
	"github.com/buildhive/buildhive-backend/internal/services"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Auth verifies the bearer token and places the acting identity in the
// request context. Requests without a valid token get 401.
func Auth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			uid, err := primitive.ObjectIDFromHex(claims.UID)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			actor := engine.Actor{ID: uid, Role: models.Role(claims.Role)}
			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || actor.Role != models.RoleAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success":false,"message":"Admin access required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorFrom returns the authenticated actor placed in the context by Auth.
func ActorFrom(ctx context.Context) (engine.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(engine.Actor)
	return actor, ok
}

// ExtractBearerToken pulls the token out of an Authorization header value.
func ExtractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
