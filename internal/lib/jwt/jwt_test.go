package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat_backend/internal/models"
)

func testUser() models.User {
	return models.User{
		UID:   uuid.New(),
		Email: "user@example.com",
		Role:  models.RoleUser,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 48*time.Hour)
	user := testUser()

	token, err := m.NewAccessToken(user)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)

	assert.Equal(t, user.UID.String(), claims.Subject)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.False(t, claims.Refresh)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshTokenClaims(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 48*time.Hour)

	token, err := m.NewRefreshToken(testUser())
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)

	assert.True(t, claims.Refresh)
	assert.Empty(t, claims.Role)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestUniqueTokenIDs(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 48*time.Hour)
	user := testUser()

	first, err := m.NewAccessToken(user)
	require.NoError(t, err)
	second, err := m.NewAccessToken(user)
	require.NoError(t, err)

	firstClaims, err := m.Parse(first)
	require.NoError(t, err)
	secondClaims, err := m.Parse(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, 48*time.Hour)

	token, err := m.NewAccessToken(testUser())
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestTamperedToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 48*time.Hour)

	token, err := m.NewAccessToken(testUser())
	require.NoError(t, err)

	_, err = m.Parse(token + "x")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWrongSecret(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 48*time.Hour)
	other := NewManager("other-secret", time.Hour, 48*time.Hour)

	token, err := m.NewAccessToken(testUser())
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestGarbageInput(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 48*time.Hour)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Parse(input)
		assert.ErrorIs(t, err, ErrInvalid, "input %q", input)
	}
}
