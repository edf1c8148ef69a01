// Package chats persists conversation turns and forwards prompts to the
// downstream model agent. Every route into it sits behind the auth guard;
// the caller identity comes from the request context.
package chats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "chat_backend/internal/lib/logger"
	"chat_backend/internal/models"
	"chat_backend/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrChatNotFound     = errors.New("chat not found")
	ErrAgentUnavailable = errors.New("agent unavailable")
)

type Agent interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

type ChatStore interface {
	SaveChat(ctx context.Context, chat models.Chat) (uuid.UUID, error)
	ChatHistory(ctx context.Context, chatID uuid.UUID, userID string) ([]models.Chat, error)
}

type Service struct {
	log   *slog.Logger
	store ChatStore
	agent Agent
}

func New(log *slog.Logger, store ChatStore, agent Agent) *Service {
	return &Service{
		log:   log,
		store: store,
		agent: agent,
	}
}

// Send forwards the prompt to the agent and records the turn. A zero chatID
// starts a new conversation.
func (s *Service) Send(ctx context.Context, userID string, chatID uuid.UUID, input string) (models.Chat, error) {
	const op = "chats.Send"

	log := s.log.With(slog.String("op", op))

	if chatID == uuid.Nil {
		chatID = uuid.New()
	}

	response, err := s.agent.Invoke(ctx, input)
	if err != nil {
		log.Error("agent invocation failed", sl.Err(err))
		return models.Chat{}, ErrAgentUnavailable
	}

	chat := models.Chat{
		ChatID:    chatID,
		UserID:    userID,
		UserInput: input,
		Response:  response,
	}

	id, err := s.store.SaveChat(ctx, chat)
	if err != nil {
		log.Error("failed to save chat", sl.Err(err))
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}

	chat.ID = id

	return chat, nil
}

// History returns the caller's turns for one conversation, oldest first.
func (s *Service) History(ctx context.Context, chatID uuid.UUID, userID string) ([]models.Chat, error) {
	const op = "chats.History"

	chats, err := s.store.ChatHistory(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrChatNotFound) {
			return nil, ErrChatNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return chats, nil
}
