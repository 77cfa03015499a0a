package access

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// UserIDFields lists the payload fields that may carry the user id, in
// precedence order. Upstream senders used different names over time; the
// first present non-empty field wins.
var UserIDFields = []string{"tg_user_id", "telegram_id", "platform_id", "user_id", "client_id", "id"}

// DefaultDurationDays is applied when a grant does not specify a duration.
const DefaultDurationDays = 30

// MaxDurationDays bounds a single grant to roughly a century.
const MaxDurationDays = 36500

const maxPayloadBytes = 64 << 10

// Payload is a loosely typed grant request as received from a sender.
type Payload map[string]any

// ReadPayload decodes a JSON or form-encoded request body. JSON numbers are
// kept as json.Number so large ids survive intact.
func ReadPayload(r *http.Request) (Payload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, maxPayloadBytes)
		if err := r.ParseMultipartForm(maxPayloadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		payload := make(Payload, len(r.PostForm))
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				payload[k] = vs[0]
			}
		}
		return payload, nil
	default:
		dec := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes))
		dec.UseNumber()
		var payload Payload
		if err := dec.Decode(&payload); err != nil {
			if errors.Is(err, io.EOF) {
				return Payload{}, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if payload == nil {
			payload = Payload{}
		}
		return payload, nil
	}
}

// Fields returns the sorted names of all received fields.
func (p Payload) Fields() []string {
	fields := make([]string, 0, len(p))
	for k := range p {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// GrantRequest is a validated grant.
type GrantRequest struct {
	UserID       int64
	IDField      string
	DurationDays int
	Plan         string
}

// ResolveGrant extracts and validates a grant from a payload. The returned
// request carries IDField even on validation errors once an id was found.
func ResolveGrant(p Payload) (GrantRequest, error) {
	var req GrantRequest

	field, raw := p.firstString(UserIDFields...)
	if field == "" {
		return req, ErrMissingUserID
	}
	req.IDField = field

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return req, ErrInvalidUserID
	}
	req.UserID = id

	req.DurationDays = DefaultDurationDays
	if _, rawDays := p.firstString("duration_days"); rawDays != "" {
		days, err := strconv.Atoi(rawDays)
		if err != nil || days <= 0 || days > MaxDurationDays {
			return req, ErrInvalidDuration
		}
		req.DurationDays = days
	}

	_, req.Plan = p.firstString("plan")
	if len(req.Plan) > 64 {
		return req, ErrInvalidPlan
	}

	return req, nil
}

// firstString returns the first key with a non-empty scalar value.
func (p Payload) firstString(keys ...string) (string, string) {
	for _, key := range keys {
		v, ok := p[key]
		if !ok {
			continue
		}
		switch value := v.(type) {
		case string:
			if s := strings.TrimSpace(value); s != "" {
				return key, s
			}
		case json.Number:
			return key, value.String()
		case float64:
			return key, strconv.FormatFloat(value, 'f', -1, 64)
		case bool:
			return key, strconv.FormatBool(value)
		}
	}
	return "", ""
}
