package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chat_backend/internal/auth"
	"chat_backend/internal/lib/actiontoken"
	resp "chat_backend/internal/lib/api/response"
	sl "chat_backend/internal/lib/logger"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Status  string `json:"verification_status"`
	Message string `json:"message"`
}

// New completes email verification for the account referenced by the path
// token. Re-submitting the same valid token is reported as already verified
// rather than as an error.
func New(
	log *slog.Logger,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := chi.URLParam(r, "token")
		if token == "" {
			log.Warn("missing verification token")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("missing token"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		outcome, err := authService.VerifyEmail(ctx, token)
		if err != nil {
			switch {
			case errors.Is(err, actiontoken.ErrExpired), errors.Is(err, actiontoken.ErrInvalid):
				log.Warn("invalid verification token", sl.Err(err))

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("invalid or expired token"))
			case errors.Is(err, auth.ErrUserNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User account not found"))
			case errors.Is(err, auth.ErrServiceUnavailable):
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, resp.Error("Service unavailable"))
			default:
				log.Error("failed to verify user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("internal error"))
			}

			return
		}

		log.Info("email verification processed", slog.String("outcome", string(outcome)))

		message := "Email verified successfully! Your account is now fully registered."
		if outcome == auth.OutcomeAlreadyVerified {
			message = "Account is already verified"
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Status:   string(outcome),
			Message:  message,
		})
	}
}
