package authz

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat_backend/internal/auth"
)

type fakeAuthorizer struct {
	identity auth.Identity
	err      error
}

func (f *fakeAuthorizer) Authorize(_ context.Context, _ string) (auth.Identity, error) {
	return f.identity, f.err
}

func serve(t *testing.T, authorizer Authorizer, policy Policy, header string, roles ...string) (*httptest.ResponseRecorder, *auth.Identity) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen *auth.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFromContext(r.Context()); ok {
			seen = &identity
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}

	rec := httptest.NewRecorder()
	New(log, authorizer, policy, roles...)(next).ServeHTTP(rec, req)

	return rec, seen
}

func TestMissingBearerToken(t *testing.T) {
	rec, _ := serve(t, &fakeAuthorizer{}, PolicyEnforced, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(t, &fakeAuthorizer{}, PolicyEnforced, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRejectedToken(t *testing.T) {
	for _, err := range []error{auth.ErrTokenRevoked, auth.ErrWrongTokenType} {
		rec, _ := serve(t, &fakeAuthorizer{err: err}, PolicyEnforced, "Bearer token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestStoreFailureIsServiceUnavailable(t *testing.T) {
	rec, _ := serve(t, &fakeAuthorizer{err: auth.ErrServiceUnavailable}, PolicyEnforced, "Bearer token")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIdentityAdmittedToContext(t *testing.T) {
	authorizer := &fakeAuthorizer{identity: auth.Identity{UserID: "uid-1", Email: "user@example.com", Role: "user"}}

	rec, seen := serve(t, authorizer, PolicyEnforced, "Bearer token", "user")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "uid-1", seen.UserID)
	assert.Equal(t, "user@example.com", seen.Email)
}

func TestMissingRoleForbidden(t *testing.T) {
	authorizer := &fakeAuthorizer{identity: auth.Identity{UserID: "uid-1", Role: "user"}}

	rec, _ := serve(t, authorizer, PolicyEnforced, "Bearer token", "admin")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDisabledPolicySkipsRoleCheck(t *testing.T) {
	authorizer := &fakeAuthorizer{identity: auth.Identity{UserID: "uid-1", Role: "user"}}

	rec, seen := serve(t, authorizer, PolicyDisabled, "Bearer token", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, seen)
}
