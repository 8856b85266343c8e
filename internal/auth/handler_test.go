package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/taskapi/internal/apperror"
	"github.com/redmonkez12/taskapi/internal/user"
)

func serveMe(t *testing.T, h *Handler, id Identity) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	h.Me(rec, req)
	return rec
}

func TestMeReadsStoredProfile(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.service)

	ann, _, err := env.service.Register(context.Background(), "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	stale := *ann
	stale.Name = "Old Name"
	rec := serveMe(t, h, Identity{ID: ann.ID, User: &stale})
	require.Equal(t, http.StatusOK, rec.Code)

	var body UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ann.ID, body.ID)
	assert.Equal(t, "Ann", body.Name)
}

func TestMeUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.service)

	id := uuid.New()
	rec := serveMe(t, h, Identity{ID: id, User: &user.User{ID: id, Name: "Ghost"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperror.CodeUserNotFound, errorCode(t, rec))
}

func TestMeWithoutIdentity(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.service)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperror.CodeMissingAuth, errorCode(t, rec))
}
