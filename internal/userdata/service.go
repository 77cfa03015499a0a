// Package userdata mirrors per-user progress and profile documents so they
// follow the user across devices.
package userdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bissquit/fitgram/internal/domain"
)

// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")

// ProfileInput holds the editable profile fields.
type ProfileInput struct {
	Name      string
	Birthdate string
	Notes     string
}

// Service implements user data operations on top of a Store.
type Service struct {
	store Store
	now   func() time.Time

	// mu serializes read-modify-write of progress documents in this process.
	mu sync.Mutex
}

// NewService creates a new userdata service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Progress returns the user's completed dates in ascending order.
func (s *Service) Progress(ctx context.Context, userID int64) ([]string, error) {
	return s.loadProgress(ctx, userID)
}

// MarkDone adds date to the user's completed dates. Marking twice is a no-op.
func (s *Service) MarkDone(ctx context.Context, userID int64, date string) ([]string, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dates, err := s.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := sort.SearchStrings(dates, date)
	if i < len(dates) && dates[i] == date {
		return dates, nil
	}
	dates = append(dates, "")
	copy(dates[i+1:], dates[i:])
	dates[i] = date

	if err := s.saveJSON(ctx, progressKey(userID), dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// Unmark removes date from the user's completed dates.
func (s *Service) Unmark(ctx context.Context, userID int64, date string) ([]string, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dates, err := s.loadProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := sort.SearchStrings(dates, date)
	if i == len(dates) || dates[i] != date {
		return dates, nil
	}
	dates = append(dates[:i], dates[i+1:]...)

	if len(dates) == 0 {
		if err := s.store.Delete(ctx, progressKey(userID)); err != nil {
			return nil, fmt.Errorf("delete progress: %w", err)
		}
		return dates, nil
	}

	if err := s.saveJSON(ctx, progressKey(userID), dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// Profile returns the user's profile, or an empty one if none was saved.
func (s *Service) Profile(ctx context.Context, userID int64) (*domain.Profile, error) {
	raw, err := s.store.Get(ctx, profileKey(userID))
	if errors.Is(err, ErrNotFound) {
		return &domain.Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile replaces the user's profile. The last write wins.
func (s *Service) SaveProfile(ctx context.Context, userID int64, input ProfileInput) (*domain.Profile, error) {
	if input.Birthdate != "" {
		if err := validateDate(input.Birthdate); err != nil {
			return nil, err
		}
	}

	profile := &domain.Profile{
		Name:      input.Name,
		Birthdate: input.Birthdate,
		Notes:     input.Notes,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.saveJSON(ctx, profileKey(userID), profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Service) loadProgress(ctx context.Context, userID int64) ([]string, error) {
	raw, err := s.store.Get(ctx, progressKey(userID))
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *Service) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func validateDate(date string) error {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

func progressKey(userID int64) string {
	return "progress:" + strconv.FormatInt(userID, 10)
}

func profileKey(userID int64) string {
	return "profile:" + strconv.FormatInt(userID, 10)
}
