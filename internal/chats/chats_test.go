package chats

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat_backend/internal/models"
	"chat_backend/internal/storage"
)

type fakeChatStore struct {
	chats []models.Chat
}

func (f *fakeChatStore) SaveChat(_ context.Context, chat models.Chat) (uuid.UUID, error) {
	chat.ID = uuid.New()
	f.chats = append(f.chats, chat)
	return chat.ID, nil
}

func (f *fakeChatStore) ChatHistory(_ context.Context, chatID uuid.UUID, userID string) ([]models.Chat, error) {
	var out []models.Chat
	for _, c := range f.chats {
		if c.ChatID == chatID && c.UserID == userID {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, storage.ErrChatNotFound
	}
	return out, nil
}

type fakeAgent struct {
	response string
	err      error
}

func (f *fakeAgent) Invoke(_ context.Context, _ string) (string, error) {
	return f.response, f.err
}

func newTestService(agent Agent) (*Service, *fakeChatStore) {
	store := &fakeChatStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, store, agent), store
}

func TestSendStartsNewConversation(t *testing.T) {
	svc, store := newTestService(&fakeAgent{response: "hello back"})

	turn, err := svc.Send(context.Background(), "uid-1", uuid.Nil, "hello")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, turn.ChatID)
	assert.Equal(t, "hello back", turn.Response)
	require.Len(t, store.chats, 1)
}

func TestSendAppendsToConversation(t *testing.T) {
	svc, _ := newTestService(&fakeAgent{response: "ok"})

	first, err := svc.Send(context.Background(), "uid-1", uuid.Nil, "one")
	require.NoError(t, err)

	second, err := svc.Send(context.Background(), "uid-1", first.ChatID, "two")
	require.NoError(t, err)
	assert.Equal(t, first.ChatID, second.ChatID)

	history, err := svc.History(context.Background(), first.ChatID, "uid-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSendAgentFailure(t *testing.T) {
	svc, store := newTestService(&fakeAgent{err: assert.AnError})

	_, err := svc.Send(context.Background(), "uid-1", uuid.Nil, "hello")
	assert.ErrorIs(t, err, ErrAgentUnavailable)
	assert.Empty(t, store.chats, "failed turns are not persisted")
}

func TestHistoryScopedToCaller(t *testing.T) {
	svc, _ := newTestService(&fakeAgent{response: "ok"})

	turn, err := svc.Send(context.Background(), "uid-1", uuid.Nil, "mine")
	require.NoError(t, err)

	_, err = svc.History(context.Background(), turn.ChatID, "uid-2")
	assert.ErrorIs(t, err, ErrChatNotFound)
}
