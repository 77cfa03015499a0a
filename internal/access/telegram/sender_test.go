package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testToken = "123456:TEST-TOKEN"

type fakeBotAPI struct {
	server   *httptest.Server
	sendOK   bool
	lastForm map[string]string
}

func newFakeBotAPI(t *testing.T, sendOK bool) *fakeBotAPI {
	t.Helper()
	f := &fakeBotAPI{sendOK: sendOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/bot"+testToken+"/getMe", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 1, "is_bot": true, "first_name": "Fit", "username": "fitgram_bot"},
		})
	})
	mux.HandleFunc("/bot"+testToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		f.lastForm = map[string]string{
			"chat_id": r.PostForm.Get("chat_id"),
			"text":    r.PostForm.Get("text"),
		}

		if !f.sendOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":          false,
				"error_code":  403,
				"description": "Forbidden: bot was blocked by the user",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"message_id": 7,
				"date":       0,
				"chat":       map[string]any{"id": 555, "type": "private"},
			},
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBotAPI) endpoint() string {
	return f.server.URL + "/bot%s/%s"
}

func testSubscription() *domain.Subscription {
	return &domain.Subscription{
		UserID:    555,
		Plan:      "standard",
		ExpiresAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewSender_Validation(t *testing.T) {
	_, err := NewSender(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot token is required")
}

func TestNewSender_Defaults(t *testing.T) {
	api := newFakeBotAPI(t, true)

	sender, err := NewSender(Config{BotToken: testToken, APIURL: api.endpoint()})
	require.NoError(t, err)
	assert.Equal(t, rate.Limit(defaultRateLimit), sender.limiter.Limit())
	assert.Equal(t, "fitgram_bot", sender.bot.Self.UserName)
}

func TestSender_NotifyAccessGranted(t *testing.T) {
	api := newFakeBotAPI(t, true)
	sender, err := NewSender(Config{BotToken: testToken, APIURL: api.endpoint(), RateLimit: 100})
	require.NoError(t, err)

	err = sender.NotifyAccessGranted(context.Background(), testSubscription())
	require.NoError(t, err)

	assert.Equal(t, "555", api.lastForm["chat_id"])
	assert.Equal(t, "Your standard access is active until 2026-05-01.", api.lastForm["text"])
}

func TestSender_NotifyAccessGranted_APIError(t *testing.T) {
	api := newFakeBotAPI(t, false)
	sender, err := NewSender(Config{BotToken: testToken, APIURL: api.endpoint()})
	require.NoError(t, err)

	err = sender.NotifyAccessGranted(context.Background(), testSubscription())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "blocked")
}

func TestSender_NotifyAccessGranted_ContextCancelled(t *testing.T) {
	api := newFakeBotAPI(t, true)
	sender, err := NewSender(Config{BotToken: testToken, APIURL: api.endpoint()})
	require.NoError(t, err)
	sender.limiter = rate.NewLimiter(0.001, 1)
	sender.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sender.NotifyAccessGranted(ctx, testSubscription())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}
