// Package actiontoken encodes small payloads into signed, URL-safe,
// single-purpose tokens for out-of-band flows (email verification, password
// reset). Tokens carry their issue time; validity is decided at parse time
// against a caller-supplied maximum age, so the same token format serves
// windows of different lengths.
//
// The codec keeps no state: a token remains replayable within its window
// unless the caller flips application state on first use.
package actiontoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeEmailVerification = "email-verification"
	PurposePasswordReset     = "password-reset"
)

var (
	ErrInvalid = errors.New("invalid action token")
	ErrExpired = errors.New("action token expired")
)

type claims struct {
	Purpose string            `json:"purpose"`
	Data    map[string]string `json:"data"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue signs payload under the given purpose. Tokens issued for one purpose
// never parse under another: the signing key itself is derived from the
// purpose, so a verification token presented to the reset flow fails the
// signature check outright.
func (c *Codec) Issue(purpose string, payload map[string]string) (string, error) {
	cl := claims{
		Purpose: purpose,
		Data:    payload,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)

	return token.SignedString(c.purposeKey(purpose))
}

// Parse verifies the token under purpose and returns its payload. Fails with
// ErrExpired when more than maxAge has elapsed since issuance, ErrInvalid on
// any signature, structure or purpose fault.
func (c *Codec) Parse(purpose, tokenStr string, maxAge time.Duration) (map[string]string, error) {
	var cl claims

	token, err := jwt.ParseWithClaims(tokenStr, &cl, func(t *jwt.Token) (interface{}, error) {
		return c.purposeKey(purpose), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalid
	}

	if cl.Purpose != purpose {
		return nil, ErrInvalid
	}

	if cl.IssuedAt == nil {
		return nil, ErrInvalid
	}

	if time.Since(cl.IssuedAt.Time) > maxAge {
		return nil, ErrExpired
	}

	return cl.Data, nil
}

func (c *Codec) purposeKey(purpose string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}
