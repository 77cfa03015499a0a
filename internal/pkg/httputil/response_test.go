package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, map[string]string{"slug": "x"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"slug":"x"}}`, rec.Body.String())
}

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "program not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"program not found"}}`, rec.Body.String())
}

func TestValidationError_FieldDetails(t *testing.T) {
	type req struct {
		Title string `json:"title" validate:"required"`
	}
	err := validator.New().Struct(req{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	ValidationError(rec, err)

	var body struct {
		Error struct {
			Message string              `json:"message"`
			Details []map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation error", body.Error.Message)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "Title", body.Error.Details[0]["field"])
	assert.Equal(t, "required", body.Error.Details[0]["message"])
}

func TestHandleError(t *testing.T) {
	errMissing := errors.New("thing not found")
	mappings := []ErrorMapping{{Error: errMissing, Status: http.StatusNotFound}}

	rec := httptest.NewRecorder()
	HandleError(httptest.NewRequest(http.MethodGet, "/", nil).Context(), rec, errMissing, mappings)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	HandleError(httptest.NewRequest(http.MethodGet, "/", nil).Context(), rec, errors.New("boom"), mappings)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error")
}
