package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/taskapi/internal/apperror"
)

type signupBody struct {
	Name     string  `json:"name" validate:"notblank"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"min=6,max=72"`
	Nickname *string `json:"nickname" validate:"omitnil,notblank"`
}

func TestDecodeJSONItemizesFields(t *testing.T) {
	body := `{"name":"  ","email":"not-an-email","password":"123"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst signupBody
	err := DecodeJSON(httptest.NewRecorder(), req, &dst)
	require.Error(t, err)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)

	byField := map[string]string{}
	for _, f := range appErr.Fields {
		byField[f.Field] = f.Message
	}
	assert.Len(t, byField, 3)
	assert.Contains(t, byField, "name")
	assert.Equal(t, "valid email required", byField["email"])
	assert.Equal(t, "password must be at least 6 characters", byField["password"])
}

func TestDecodeJSONOptionalPointer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ann","email":"ann@x.com","password":"secret1"}`))
	var dst signupBody
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Nil(t, dst.Nickname)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ann","email":"ann@x.com","password":"secret1","nickname":""}`))
	err := DecodeJSON(httptest.NewRecorder(), req, &dst)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestDecodeJSONMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	var dst signupBody
	err := DecodeJSON(httptest.NewRecorder(), req, &dst)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidRequestBody, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
}

func TestRespondAppErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondAppError(rec, req, errors.New("pq: password authentication failed for user postgres"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "postgres")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "server error", resp.Error)
	assert.Equal(t, apperror.CodeInternalError, resp.Code)
}

func TestRespondAppErrorKeepsClientErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondAppError(rec, req, apperror.Forbidden("forbidden"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "forbidden", resp.Error)
	assert.Equal(t, apperror.CodeForbidden, resp.Code)
}
