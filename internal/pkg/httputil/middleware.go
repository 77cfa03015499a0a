package httputil

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/bissquit/fitgram/internal/pkg/ctxlog"
	"github.com/bissquit/fitgram/internal/pkg/initdata"
	"golang.org/x/time/rate"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (originsSet[origin] || originsSet["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Webhook-Secret")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

// Context keys for storing caller identity.
const (
	CredentialKey   contextKey = "credential"
	TelegramUserKey contextKey = "telegram_user"
)

// EditorAuthorizer resolves a session token to an editor credential.
// Implementations return errors wrapping ErrUnauthorized or ErrForbidden;
// anything else is treated as an internal failure.
type EditorAuthorizer interface {
	AuthorizeEditor(ctx context.Context, token string) (domain.Credential, error)
}

// InitDataVerifier verifies raw Telegram init data.
type InitDataVerifier interface {
	Verify(raw string) (*initdata.Data, error)
}

// RequireEditor creates middleware that admits only editor session tokens
// passed as "Authorization: Bearer <token>".
func RequireEditor(authorizer EditorAuthorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := authorizationValue(r, "bearer")
			if !ok {
				Error(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			cred, err := authorizer.AuthorizeEditor(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, ErrUnauthorized):
					Error(w, http.StatusUnauthorized, "invalid or expired token")
				case errors.Is(err, ErrForbidden):
					Error(w, http.StatusForbidden, ErrForbidden.Error())
				default:
					ctxlog.FromContext(r.Context()).Error("editor authorization failed", "error", err)
					Error(w, http.StatusInternalServerError, "internal error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), CredentialKey, cred)
			ctx = ctxlog.With(ctx, "credential", cred.Kind())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTelegramUser creates middleware that admits end-users presenting
// "Authorization: tma <initDataRaw>".
func RequireTelegramUser(verifier InitDataVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := authorizationValue(r, "tma")
			if !ok {
				Error(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			data, err := verifier.Verify(raw)
			if err != nil {
				Error(w, http.StatusUnauthorized, "invalid init data")
				return
			}

			ctx := context.WithValue(r.Context(), TelegramUserKey, data.User)
			ctx = ctxlog.With(ctx, "tg_user_id", data.User.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit rejects requests with 429 once the shared limiter is exhausted.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				Error(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetCredential extracts the editor credential from context.
func GetCredential(ctx context.Context) domain.Credential {
	if cred, ok := ctx.Value(CredentialKey).(domain.Credential); ok {
		return cred
	}
	return nil
}

// GetTelegramUser extracts the verified Telegram user from context.
func GetTelegramUser(ctx context.Context) (initdata.User, bool) {
	user, ok := ctx.Value(TelegramUserKey).(initdata.User)
	return user, ok
}

func authorizationValue(r *http.Request, scheme string) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) {
		return "", false
	}
	value := strings.TrimSpace(parts[1])
	return value, value != ""
}
