// Package editors decides who may manage content: Telegram users on the
// editor allow-list, and in development a PIN holder.
package editors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/bissquit/fitgram/internal/pkg/ctxlog"
	"github.com/bissquit/fitgram/internal/pkg/httputil"
	"github.com/bissquit/fitgram/internal/pkg/initdata"
	"github.com/bissquit/fitgram/internal/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

// InitDataVerifier checks Telegram WebApp init data.
type InitDataVerifier interface {
	Verify(raw string) (*initdata.Data, error)
}

// DevPinConfig configures the development PIN bypass.
type DevPinConfig struct {
	Enabled bool
	Hash    string
}

// Verification is the outcome of an editor check for a Telegram user.
// Token and ExpiresAt are set only for editors.
type Verification struct {
	TelegramUserID int64
	IsEditor       bool
	Token          string
	ExpiresAt      time.Time
}

// Session is an issued editor session.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Kind      string    `json:"kind"`
}

// Service implements editor authorization.
type Service struct {
	repo     Repository
	verifier InitDataVerifier
	tokens   *Tokens
	devPin   DevPinConfig
}

// NewService creates a new editors service.
func NewService(repo Repository, verifier InitDataVerifier, tokens *Tokens, devPin DevPinConfig) *Service {
	return &Service{
		repo:     repo,
		verifier: verifier,
		tokens:   tokens,
		devPin:   devPin,
	}
}

// VerifyEditor checks init data and the allow-list. Init data errors are
// returned as the initdata sentinels; allow-list failures are wrapped.
func (s *Service) VerifyEditor(ctx context.Context, raw string) (*Verification, error) {
	data, err := s.verifier.Verify(raw)
	if err != nil {
		recordVerification(domain.CredentialTelegram, verificationResult(err))
		return nil, err
	}

	isEditor, err := s.repo.IsEditor(ctx, data.User.ID)
	if err != nil {
		recordVerification(domain.CredentialTelegram, "error")
		return nil, fmt.Errorf("lookup editor: %w", err)
	}

	result := &Verification{TelegramUserID: data.User.ID, IsEditor: isEditor}
	if !isEditor {
		recordVerification(domain.CredentialTelegram, "not_editor")
		ctxlog.FromContext(ctx).Info("editor check denied", "tg_user_id", data.User.ID)
		return result, nil
	}

	result.Token, result.ExpiresAt, err = s.tokens.Issue(domain.TelegramVerified{UserID: data.User.ID})
	if err != nil {
		recordVerification(domain.CredentialTelegram, "error")
		return nil, err
	}

	recordVerification(domain.CredentialTelegram, "editor")
	ctxlog.FromContext(ctx).Info("editor session issued", "tg_user_id", data.User.ID)
	return result, nil
}

// DevPinEnabled reports whether the PIN bypass is configured on.
func (s *Service) DevPinEnabled() bool {
	return s.devPin.Enabled
}

// VerifyDevPin exchanges the development PIN for a session token.
func (s *Service) VerifyDevPin(ctx context.Context, pin string) (*Session, error) {
	if !s.devPin.Enabled {
		return nil, ErrDevPinDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.devPin.Hash), []byte(pin)); err != nil {
		recordVerification(domain.CredentialDevPin, "denied")
		ctxlog.FromContext(ctx).Warn("dev pin rejected")
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidPin
		}
		return nil, fmt.Errorf("compare pin: %w", err)
	}

	cred := domain.DevPinOverride{}
	token, expiresAt, err := s.tokens.Issue(cred)
	if err != nil {
		recordVerification(domain.CredentialDevPin, "error")
		return nil, err
	}

	recordVerification(domain.CredentialDevPin, "editor")
	ctxlog.FromContext(ctx).Warn("dev pin session issued")
	return &Session{Token: token, ExpiresAt: expiresAt, Kind: cred.Kind()}, nil
}

// AuthorizeEditor implements httputil.EditorAuthorizer. Telegram credentials
// are re-checked against the allow-list on every call, so removing an editor
// takes effect before their token expires.
func (s *Service) AuthorizeEditor(ctx context.Context, token string) (domain.Credential, error) {
	cred, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", httputil.ErrUnauthorized, err)
	}

	switch c := cred.(type) {
	case domain.TelegramVerified:
		isEditor, err := s.repo.IsEditor(ctx, c.UserID)
		if err != nil {
			return nil, fmt.Errorf("lookup editor: %w", err)
		}
		if !isEditor {
			return nil, httputil.ErrForbidden
		}
		return c, nil
	case domain.DevPinOverride:
		if !s.devPin.Enabled {
			return nil, fmt.Errorf("%w: %w", httputil.ErrUnauthorized, ErrDevPinDisabled)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %w", httputil.ErrUnauthorized, ErrUnknownCredKind)
	}
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, initdata.ErrNoData):
		return "no_data"
	case errors.Is(err, initdata.ErrInvalidSignature), errors.Is(err, initdata.ErrExpired):
		return "invalid"
	default:
		return "error"
	}
}

func recordVerification(method, result string) {
	metrics.EditorVerifications.WithLabelValues(method, result).Inc()
}
