package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/taskapi/internal/apperror"
	"github.com/redmonkez12/taskapi/internal/httputil"
	"github.com/redmonkez12/taskapi/internal/user"
)

type mapResolver map[uuid.UUID]*user.User

func (m mapResolver) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

type brokenResolver struct{}

func (brokenResolver) GetByID(context.Context, uuid.UUID) (*user.User, error) {
	return nil, errors.New("connection refused")
}

func serveGate(t *testing.T, gate *Middleware, header string) (*httptest.ResponseRecorder, *Identity) {
	t.Helper()

	var seen *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		seen = &id
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	gate.RequireAuth(next).ServeHTTP(rec, req)
	return rec, seen
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestRequireAuth(t *testing.T) {
	tokens := newTestJWTService(t, "secret")
	ann := &user.User{ID: uuid.New(), Name: "Ann", Email: "ann@x.com"}
	gate := NewMiddleware(tokens, mapResolver{ann.ID: ann})

	valid, err := tokens.CreateToken(ann.ID, time.Hour)
	require.NoError(t, err)
	expired, err := tokens.CreateToken(ann.ID, 0)
	require.NoError(t, err)
	ghost, err := tokens.CreateToken(uuid.New(), time.Hour)
	require.NoError(t, err)
	foreign, err := newTestJWTService(t, "other").CreateToken(ann.ID, time.Hour)
	require.NoError(t, err)

	t.Run("valid token attaches identity", func(t *testing.T) {
		rec, seen := serveGate(t, gate, "Bearer "+valid)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, ann.ID, seen.ID)
		assert.Equal(t, "Ann", seen.User.Name)
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		rec, _ := serveGate(t, gate, "bearer "+valid)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", apperror.CodeMissingAuth},
		{"wrong scheme", "Basic " + valid, apperror.CodeInvalidAuthHeader},
		{"no token", "Bearer ", apperror.CodeInvalidAuthHeader},
		{"extra parts", "Bearer " + valid + " extra", apperror.CodeInvalidAuthHeader},
		{"expired", "Bearer " + expired, apperror.CodeTokenExpired},
		{"wrong key", "Bearer " + foreign, apperror.CodeInvalidToken},
		{"garbage", "Bearer garbage", apperror.CodeInvalidToken},
		{"deleted identity", "Bearer " + ghost, apperror.CodeInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, seen := serveGate(t, gate, tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, seen)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestRequireAuthNonUUIDSubject(t *testing.T) {
	tokens := newTestJWTService(t, "secret")
	gate := NewMiddleware(tokens, mapResolver{})

	// CreateToken only accepts UUIDs, so sign a raw subject directly.
	token, err := signRawSubject(tokens, "not-a-uuid")
	require.NoError(t, err)

	rec, _ := serveGate(t, gate, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperror.CodeInvalidToken, errorCode(t, rec))
}

func TestRequireAuthStoreFailure(t *testing.T) {
	tokens := newTestJWTService(t, "secret")
	gate := NewMiddleware(tokens, brokenResolver{})

	token, err := tokens.CreateToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	rec, _ := serveGate(t, gate, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
