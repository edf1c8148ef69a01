package actiontoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c := NewCodec("test-secret")
	payload := map[string]string{"email": "user@example.com"}

	token, err := c.Issue(PurposeEmailVerification, payload)
	require.NoError(t, err)

	got, err := c.Parse(PurposeEmailVerification, token, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, payload, got)
}

func TestExpiredAfterMaxAge(t *testing.T) {
	c := NewCodec("test-secret")

	token, err := c.Issue(PurposePasswordReset, map[string]string{"email": "user@example.com"})
	require.NoError(t, err)

	time.Sleep(15 * time.Millisecond)

	_, err = c.Parse(PurposePasswordReset, token, time.Nanosecond)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCrossPurposeRejected(t *testing.T) {
	c := NewCodec("test-secret")

	token, err := c.Issue(PurposeEmailVerification, map[string]string{"email": "user@example.com"})
	require.NoError(t, err)

	// A verification token must never validate in the reset flow.
	_, err = c.Parse(PurposePasswordReset, token, time.Hour)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWrongSecretRejected(t *testing.T) {
	c := NewCodec("test-secret")
	other := NewCodec("other-secret")

	token, err := c.Issue(PurposeEmailVerification, map[string]string{"email": "user@example.com"})
	require.NoError(t, err)

	_, err = other.Parse(PurposeEmailVerification, token, time.Hour)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMalformedToken(t *testing.T) {
	c := NewCodec("test-secret")

	for _, input := range []string{"", "garbage", "a.b.c"} {
		_, err := c.Parse(PurposeEmailVerification, input, time.Hour)
		assert.ErrorIs(t, err, ErrInvalid, "input %q", input)
	}
}
