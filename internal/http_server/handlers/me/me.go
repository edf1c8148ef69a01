package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chat_backend/internal/auth"
	"chat_backend/internal/http_server/middleware/authz"
	resp "chat_backend/internal/lib/api/response"
	sl "chat_backend/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	UID        string    `json:"uid"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// New returns the profile of the caller identified by the access token.
func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		identity, ok := authz.IdentityFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("missing identity"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := authService.Profile(ctx, identity.UserID)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))
			case errors.Is(err, auth.ErrServiceUnavailable):
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, resp.Error("Service temporarily unavailable"))
			default:
				log.Error("Failed to load profile", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		render.JSON(w, r, Response{
			Response:   resp.OK(),
			UID:        user.UID.String(),
			Email:      user.Email,
			Username:   user.Username,
			FirstName:  user.FirstName,
			LastName:   user.LastName,
			Role:       user.Role,
			IsVerified: user.IsVerified,
			CreatedAt:  user.CreatedAt,
		})
	}
}
