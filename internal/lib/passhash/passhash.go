// Package passhash produces and verifies password digests.
//
// Passwords are pre-hashed with SHA-256 before bcrypt. bcrypt only reads the
// first 72 bytes of its input and its cost grows with input length; the
// fixed-width prehash keeps hashing cost constant regardless of how large a
// password the client submits.
package passhash

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

func Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(digest), nil
}

// Verify reports whether password matches the stored digest. The comparison
// inside bcrypt is constant-time.
func Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), prehash(password)) == nil
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}
