package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chat_backend/internal/auth"
	resp "chat_backend/internal/lib/api/response"
	sl "chat_backend/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// New exchanges a bearer refresh token for a new access token. The refresh
// token field in the response is only populated when rotation is enabled.
func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		accessToken, newRefreshToken, err := authService.Refresh(ctx, token)
		if err != nil {
			if errors.Is(err, auth.ErrServiceUnavailable) {
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, resp.Error("Service unavailable"))

				return
			}

			log.Warn("failed to refresh tokens", sl.Err(err))

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Invalid or expired token"))

			return
		}

		log.Info("Tokens refreshed successfully")

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))

	return token, token != ""
}
