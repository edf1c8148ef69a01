// Package authz guards protected routes: it validates the bearer access
// token through the auth gateway and admits the caller's identity into the
// request context for downstream handlers.
package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"chat_backend/internal/auth"
	resp "chat_backend/internal/lib/api/response"
	sl "chat_backend/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// Policy controls whether required roles are actually checked. Disabled
// policy admits any authenticated caller; it exists so that turning role
// enforcement off is an explicit, visible configuration choice.
type Policy string

const (
	PolicyEnforced Policy = "enforced"
	PolicyDisabled Policy = "disabled"
)

type Authorizer interface {
	Authorize(ctx context.Context, accessToken string) (auth.Identity, error)
}

type ctxKey struct{}

// New builds the guard middleware. requiredRoles is the set of roles any of
// which admits the caller; an empty set means any authenticated caller.
func New(
	log *slog.Logger,
	authorizer Authorizer,
	policy Policy,
	requiredRoles ...string,
) func(next http.Handler) http.Handler {
	if policy == PolicyDisabled {
		log.Warn("role enforcement is disabled; authenticated callers are admitted regardless of role")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authz"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearerToken(r)
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("missing bearer token"))

				return
			}

			identity, err := authorizer.Authorize(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrServiceUnavailable) {
					log.Error("authorization unavailable", sl.Err(err))

					render.Status(r, http.StatusServiceUnavailable)
					render.JSON(w, r, resp.Error("service unavailable"))

					return
				}

				log.Warn("request rejected", sl.Err(err))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("invalid or expired token"))

				return
			}

			if policy == PolicyEnforced && len(requiredRoles) > 0 {
				if !slices.Contains(requiredRoles, identity.Role) {
					log.Warn("missing required role", slog.String("role", identity.Role))

					render.Status(r, http.StatusForbidden)
					render.JSON(w, r, resp.Error("insufficient permissions"))

					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(ctxKey{}).(auth.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}

	return token, true
}
