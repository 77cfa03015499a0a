package editors

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bissquit/fitgram/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "fitgram"

// sessionClaims are the claims of an editor session token. Kind carries the
// credential variant; Subject holds the Telegram user id for telegram tokens.
type sessionClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Tokens issues and parses HS256 editor session tokens.
type Tokens struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

// NewTokens creates a token issuer.
func NewTokens(secret string, duration time.Duration) *Tokens {
	return &Tokens{
		secret:   []byte(secret),
		duration: duration,
		now:      time.Now,
	}
}

// Issue signs a session token for the credential.
func (t *Tokens) Issue(cred domain.Credential) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.duration)

	claims := sessionClaims{
		Kind: cred.Kind(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if tv, ok := cred.(domain.TelegramVerified); ok {
		claims.Subject = strconv.FormatInt(tv.UserID, 10)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates a session token and returns the credential it carries.
// Every failure wraps ErrInvalidToken.
func (t *Tokens) Parse(token string) (domain.Credential, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	switch claims.Kind {
	case domain.CredentialTelegram:
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: subject: %v", ErrInvalidToken, err)
		}
		return domain.TelegramVerified{UserID: id}, nil
	case domain.CredentialDevPin:
		return domain.DevPinOverride{}, nil
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidToken, ErrUnknownCredKind, claims.Kind)
	}
}

