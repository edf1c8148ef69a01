package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chat_backend/internal/chats"
	"chat_backend/internal/http_server/middleware/authz"
	resp "chat_backend/internal/lib/api/response"
	sl "chat_backend/internal/lib/logger"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Request struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message" validate:"required"`
}

type Turn struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	UserInput string    `json:"user_input"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type SendResponse struct {
	resp.Response
	Turn Turn `json:"turn"`
}

type HistoryResponse struct {
	resp.Response
	Turns []Turn `json:"turns"`
}

// NewSend forwards an authenticated caller's message to the model agent and
// returns the recorded turn.
func NewSend(
	log *slog.Logger,
	validate *validator.Validate,
	chatService *chats.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.NewSend"

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

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		chatID := uuid.Nil
		if req.ChatID != "" {
			chatID, err = uuid.Parse(req.ChatID)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("invalid chat_id"))

				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		turn, err := chatService.Send(ctx, identity.UserID, chatID, req.Message)
		if err != nil {
			if errors.Is(err, chats.ErrAgentUnavailable) {
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, resp.Error("Model service unavailable"))

				return
			}

			log.Error("failed to process chat message", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, SendResponse{
			Response: resp.OK(),
			Turn: Turn{
				ID:        turn.ID.String(),
				ChatID:    turn.ChatID.String(),
				UserInput: turn.UserInput,
				Response:  turn.Response,
			},
		})
	}
}

// NewHistory returns the caller's turns for one conversation.
func NewHistory(
	log *slog.Logger,
	chatService *chats.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.chat.NewHistory"

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

		chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid chat id"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		history, err := chatService.History(ctx, chatID, identity.UserID)
		if err != nil {
			if errors.Is(err, chats.ErrChatNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Chat not found"))

				return
			}

			log.Error("failed to load chat history", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		turns := make([]Turn, 0, len(history))
		for _, c := range history {
			turns = append(turns, Turn{
				ID:        c.ID.String(),
				ChatID:    c.ChatID.String(),
				UserInput: c.UserInput,
				Response:  c.Response,
				CreatedAt: c.CreatedAt,
			})
		}

		render.JSON(w, r, HistoryResponse{
			Response: resp.OK(),
			Turns:    turns,
		})
	}
}
