package login_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat_backend/internal/auth"
	"chat_backend/internal/http_server/handlers/login"
	"chat_backend/internal/lib/actiontoken"
	"chat_backend/internal/lib/jwt"
	"chat_backend/internal/lib/passhash"
	"chat_backend/internal/models"
	"chat_backend/internal/storage"
)

type userStore struct {
	user models.User
}

func (s *userStore) SaveUser(context.Context, models.User) (uuid.UUID, error) {
	return uuid.Nil, storage.ErrUserExists
}

func (s *userStore) SetEmailVerified(context.Context, uuid.UUID) error { return nil }

func (s *userStore) UpdatePasswordHash(context.Context, uuid.UUID, string) error { return nil }

func (s *userStore) User(_ context.Context, email string) (models.User, error) {
	if email != s.user.Email {
		return models.User{}, storage.ErrUserNotFound
	}
	return s.user, nil
}

func (s *userStore) UserByID(context.Context, uuid.UUID) (models.User, error) {
	return s.user, nil
}

type noRevocations struct{}

func (noRevocations) Revoke(context.Context, string, time.Duration) error { return nil }
func (noRevocations) IsRevoked(context.Context, string) (bool, error)    { return false, nil }

type noMail struct{}

func (noMail) SendMessage(context.Context, models.EmailMessage) error { return nil }

func newHandler(t *testing.T, verified bool) http.HandlerFunc {
	t.Helper()

	passHash, err := passhash.Hash("correct-password-1")
	require.NoError(t, err)

	store := &userStore{user: models.User{
		UID:        uuid.New(),
		Email:      "user@example.com",
		Role:       models.RoleUser,
		IsVerified: verified,
		PassHash:   passHash,
	}}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	authService := auth.New(
		log,
		store,
		store,
		noRevocations{},
		jwt.NewManager("test-secret", time.Hour, 48*time.Hour),
		actiontoken.NewCodec("test-secret"),
		noMail{},
		auth.Options{FrontendDomain: "localhost"},
	)

	return login.New(log, validator.New(), authService)
}

func post(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestLoginOK(t *testing.T) {
	rec := post(newHandler(t, true), `{"email":"user@example.com","password":"correct-password-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res login.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "user@example.com", res.User.Email)
	assert.NotEmpty(t, res.User.UID)
}

func TestLoginWrongPassword(t *testing.T) {
	rec := post(newHandler(t, true), `{"email":"user@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmailSameResponse(t *testing.T) {
	handler := newHandler(t, true)

	unknown := post(handler, `{"email":"ghost@example.com","password":"correct-password-1"}`)
	wrongPass := post(handler, `{"email":"user@example.com","password":"wrong-password"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Body.String(), wrongPass.Body.String())
}

func TestLoginUnverifiedForbidden(t *testing.T) {
	rec := post(newHandler(t, false), `{"email":"user@example.com","password":"correct-password-1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	handler := newHandler(t, true)

	assert.Equal(t, http.StatusBadRequest, post(handler, `{"email":"not-an-email","password":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(handler, `not json`).Code)
}
