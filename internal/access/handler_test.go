package access

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bissquit/fitgram/internal/pkg/httputil"
	"github.com/bissquit/fitgram/internal/pkg/initdata"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookBody struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func newWebhookRouter(repo *mockRepository, secret string) http.Handler {
	h := NewHandler(newTestService(repo, nil), secret)
	r := chi.NewRouter()
	h.RegisterWebhookRoutes(r)
	r.Route("/admin", h.RegisterEditorRoutes)
	r.Route("/me", func(r chi.Router) {
		r.Use(withTelegramUser)
		h.RegisterUserRoutes(r)
	})
	return r
}

// withTelegramUser stands in for httputil.RequireTelegramUser.
func withTelegramUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := initdata.User{ID: 12345, FirstName: "Ann", Username: "ann"}
		ctx := context.WithValue(r.Context(), httputil.TelegramUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func postWebhook(t *testing.T, router http.Handler, target, contentType, body string, header map[string]string) (*httptest.ResponseRecorder, webhookBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp webhookBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestWebhookGrant_Success(t *testing.T) {
	repo := newMockRepository(12345)
	router := newWebhookRouter(repo, "")

	rec, resp := postWebhook(t, router, "/webhooks/access-grant", "application/json",
		`{"tg_user_id":"12345","duration_days":10}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	var data GrantData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, int64(12345), data.UserID)
	assert.Equal(t, "tg_user_id", data.IDField)
	assert.True(t, data.ExpiresAt.Equal(fixedNow.Add(10*24*time.Hour)))
	assert.Equal(t, fixedNow.Add(10*24*time.Hour), repo.subscriptions[12345].ExpiresAt)
}

func TestWebhookGrant_MissingID(t *testing.T) {
	router := newWebhookRouter(newMockRepository(), "")

	rec, resp := postWebhook(t, router, "/webhooks/access-grant", "application/json", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "missing_user_id", resp.Error)

	var data struct {
		ReceivedFields []string `json:"received_fields"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.NotNil(t, data.ReceivedFields)
	assert.Empty(t, data.ReceivedFields)

	rec, resp = postWebhook(t, router, "/webhooks/access-grant", "application/json", `{"phone":"1","email":"x"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, []string{"email", "phone"}, data.ReceivedFields)
}

func TestWebhookGrant_Errors(t *testing.T) {
	tests := []struct {
		name       string
		repo       *mockRepository
		body       string
		wantStatus int
		wantError  string
	}{
		{"bad id", newMockRepository(), `{"user_id":"abc"}`, http.StatusBadRequest, "invalid_user_id"},
		{"bad duration", newMockRepository(1), `{"id":1,"duration_days":-3}`, http.StatusBadRequest, "invalid_duration"},
		{"huge duration", newMockRepository(1), `{"id":1,"duration_days":200000}`, http.StatusBadRequest, "invalid_duration"},
		{"not json", newMockRepository(), `{`, http.StatusBadRequest, "invalid_payload"},
		{"unknown user", newMockRepository(), `{"client_id":99}`, http.StatusNotFound, "user_not_found"},
		{"store failure", func() *mockRepository {
			r := newMockRepository(1)
			r.upsertErr = errors.New("db down")
			return r
		}(), `{"id":1}`, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := postWebhook(t, newWebhookRouter(tt.repo, ""), "/webhooks/access-grant", "application/json", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestWebhookGrant_FormBody(t *testing.T) {
	repo := newMockRepository(321)
	router := newWebhookRouter(repo, "")

	form := url.Values{"platform_id": {"321"}, "plan": {"pro"}}
	rec, resp := postWebhook(t, router, "/webhooks/access-grant", "application/x-www-form-urlencoded", form.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "pro", repo.subscriptions[321].Plan)
}

func TestWebhookGrant_Secret(t *testing.T) {
	repo := newMockRepository(1)
	router := newWebhookRouter(repo, "s3cret")
	body := `{"id":1}`

	rec, _ := postWebhook(t, router, "/webhooks/access-grant", "application/json", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = postWebhook(t, router, "/webhooks/access-grant", "application/json", body,
		map[string]string{"X-Webhook-Secret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = postWebhook(t, router, "/webhooks/access-grant", "application/json", body,
		map[string]string{"X-Webhook-Secret": "s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = postWebhook(t, router, "/webhooks/access-grant?token=s3cret", "application/json", body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEditorGrant(t *testing.T) {
	repo := newMockRepository(5)
	router := newWebhookRouter(repo, "")

	req := httptest.NewRequest(http.MethodPost, "/admin/access-grants", strings.NewReader(`{"tg_user_id":5,"duration_days":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fixedNow.Add(2*24*time.Hour), repo.subscriptions[5].ExpiresAt)

	req = httptest.NewRequest(http.MethodPost, "/admin/access-grants", strings.NewReader(`{"tg_user_id":6}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/access-grants", strings.NewReader(`{"duration_days":2}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/access-grants", strings.NewReader(`{"tg_user_id":5,"duration_days":200000}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, fixedNow.Add(2*24*time.Hour), repo.subscriptions[5].ExpiresAt)
}

func TestSessionAndAccess(t *testing.T) {
	repo := newMockRepository()
	router := newWebhookRouter(repo, "")

	req := httptest.NewRequest(http.MethodPost, "/me/session", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		Data struct {
			User struct {
				TelegramID int64  `json:"tg_user_id"`
				Username   string `json:"username"`
			} `json:"user"`
			Access Status `json:"access"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, int64(12345), session.Data.User.TelegramID)
	assert.Equal(t, "ann", session.Data.User.Username)
	assert.False(t, session.Data.Access.Active)
	require.Contains(t, repo.users, int64(12345))

	// The session registered the user, so a webhook grant now succeeds.
	rec, _ = postWebhook(t, router, "/webhooks/access-grant", "application/json", `{"tg_user_id":"12345"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/me/access", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var access struct {
		Data Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &access))
	assert.True(t, access.Data.Active)
	assert.Equal(t, "standard", access.Data.Plan)
}
