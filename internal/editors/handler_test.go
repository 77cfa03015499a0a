package editors

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, router http.Handler, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_VerifyEditor(t *testing.T) {
	repo := &mockRepository{editors: map[int64]bool{editorID: true}}
	h := NewHandler(newTestService(t, repo, DevPinConfig{}))
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	body := func(raw string) string {
		b, err := json.Marshal(VerifyEditorRequest{InitDataRaw: raw})
		require.NoError(t, err)
		return string(b)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantOK     bool
		wantEditor bool
		wantToken  bool
		wantError  string
	}{
		{"editor", body(initDataFor(editorID)), http.StatusOK, true, true, true, ""},
		{"non editor", body(initDataFor(viewerID)), http.StatusOK, true, false, false, ""},
		{"empty body", `{}`, http.StatusBadRequest, false, false, false, "no data"},
		{"not json", `nope`, http.StatusBadRequest, false, false, false, "no data"},
		{"malformed init data", body("user=%7B%7D"), http.StatusBadRequest, false, false, false, "no data"},
		{"bad signature", body("user=%7B%22id%22%3A1%7D&hash=00"), http.StatusUnauthorized, false, false, false, "invalid init data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, r, "/auth/verify-editor", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)

			var resp VerifyEditorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantOK, resp.OK)
			assert.Equal(t, tt.wantEditor, resp.IsEditor)
			assert.Equal(t, tt.wantToken, resp.Token != "")
			assert.Equal(t, tt.wantToken, resp.ExpiresAt != nil)
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestHandler_VerifyEditor_LookupFailure(t *testing.T) {
	repo := &mockRepository{err: errors.New("db down")}
	h := NewHandler(newTestService(t, repo, DevPinConfig{}))
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	b, err := json.Marshal(VerifyEditorRequest{InitDataRaw: initDataFor(editorID)})
	require.NoError(t, err)

	rec := postJSON(t, r, "/auth/verify-editor", string(b))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"is_editor":false,"error":"internal error"}`, rec.Body.String())
}

func TestHandler_DevPin(t *testing.T) {
	svc := newTestService(t, &mockRepository{}, DevPinConfig{Enabled: true, Hash: pinHash(t, "2468")})
	h := NewHandler(svc)
	r := chi.NewRouter()
	h.RegisterDevPinRoutes(r)

	rec := postJSON(t, r, "/auth/dev-pin", `{"pin":"1111"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, r, "/auth/dev-pin", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, r, "/auth/dev-pin", `{"pin":"2468"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, "dev_pin", resp.Data.Kind)
}
