// Package initdata parses and verifies Telegram Mini App init data.
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Verification errors.
var (
	ErrNoData           = errors.New("no data")
	ErrInvalidSignature = errors.New("invalid init data signature")
	ErrExpired          = errors.New("init data expired")
)

// User is the Telegram user object embedded in init data.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Data is the parsed init data.
type Data struct {
	User     User
	AuthDate time.Time
	QueryID  string
	Hash     string
	values   url.Values
}

// Parse extracts the embedded user without checking the signature.
func Parse(raw string) (*Data, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNoData
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, ErrNoData
	}

	var user User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrNoData, err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: user id missing", ErrNoData)
	}

	data := &Data{
		User:    user,
		QueryID: values.Get("query_id"),
		Hash:    values.Get("hash"),
		values:  values,
	}

	if ts := values.Get("auth_date"); ts != "" {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: auth_date: %v", ErrNoData, err)
		}
		data.AuthDate = time.Unix(sec, 0).UTC()
	}

	return data, nil
}

// Verifier checks init data signatures against a bot token.
type Verifier struct {
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

// NewVerifier creates a verifier. An empty botToken disables the signature
// check, which is only acceptable for local development. A zero maxAge
// disables the auth_date freshness check.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	return &Verifier{
		botToken: botToken,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Verify parses raw init data and validates its signature and age.
func (v *Verifier) Verify(raw string) (*Data, error) {
	data, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	if v.botToken == "" {
		return data, nil
	}

	if data.Hash == "" {
		return nil, ErrInvalidSignature
	}

	expected, err := hex.DecodeString(data.Hash)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	if !hmac.Equal(signature(data.values, v.botToken), expected) {
		return nil, ErrInvalidSignature
	}

	if v.maxAge > 0 {
		if data.AuthDate.IsZero() || v.now().Sub(data.AuthDate) > v.maxAge {
			return nil, ErrExpired
		}
	}

	return data, nil
}

// Sign returns values encoded as init data with a valid hash for botToken.
// Any existing hash is replaced.
func Sign(values url.Values, botToken string) string {
	signed := url.Values{}
	for k, vs := range values {
		if k == "hash" {
			continue
		}
		signed[k] = append([]string(nil), vs...)
	}
	signed.Set("hash", hex.EncodeToString(signature(signed, botToken)))
	return signed.Encode()
}

func signature(values url.Values, botToken string) []byte {
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(dataCheckString(values)))
	return h.Sum(nil)
}

func dataCheckString(values url.Values) string {
	pairs := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		pairs = append(pairs, k+"="+values.Get(k))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\n")
}
