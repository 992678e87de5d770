package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

const (
	KeyRoleID           = "role_id"
	KeyAgeBound         = "age_bound"
	KeyGiveawayDuration = "giveaway_duration"
	KeyRound            = "round"
)

var (
	ErrInvalidValue = errors.New("invalid setting value")
	ErrReadOnlyKey  = errors.New("setting is managed by rounds and cannot be set directly")
)

type Repository interface {
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// Settings is the typed view of the config table layered over file defaults.
type Settings struct {
	RoleID           snowflake.ID
	AgeBoundDays     int
	GiveawayDuration time.Duration
	Round            int64
}

func (s Settings) HasRole() bool {
	return s.RoleID != 0
}

// Store mirrors the config table in memory. Writes go to the table first and
// only then to the mirror.
type Store struct {
	repo     Repository
	defaults Settings

	mu      sync.RWMutex
	values  map[string]string
	current Settings
}

func NewStore(repo Repository, defaults Settings) *Store {
	return &Store{
		repo:     repo,
		defaults: defaults,
		values:   make(map[string]string),
		current:  defaults,
	}
}

// Load reads the config table once. Persisted values that no longer parse are
// logged and the default is kept.
func (s *Store) Load(ctx context.Context) error {
	values, err := s.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if values == nil {
		values = make(map[string]string)
	}

	next := s.defaults
	for k, v := range values {
		if err := apply(&next, k, v); err != nil {
			slog.Warn("Ignoring stored setting",
				slog.String("type", "sys"),
				slog.String("key", k),
				slog.String("value", v),
				slog.Any("error", err))
		}
	}

	s.mu.Lock()
	next.Round = s.current.Round
	if next.Round != 0 {
		values[KeyRound] = strconv.FormatInt(next.Round, 10)
	}
	s.values = values
	s.current = next
	s.mu.Unlock()
	return nil
}

func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Get returns the stored raw value. A key nobody has set yet is reported as
// missing even when it has a default.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == KeyRound {
		return ErrReadOnlyKey
	}

	s.mu.RLock()
	next := s.current
	s.mu.RUnlock()
	if err := apply(&next, key, value); err != nil {
		return err
	}

	if err := s.repo.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to persist setting %s: %w", key, err)
	}

	s.mu.Lock()
	s.values[key] = value
	_ = apply(&s.current, key, value) // validated above
	s.mu.Unlock()
	return nil
}

func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetRound records the round the ledger last activated.
func (s *Store) SetRound(n int64) {
	s.mu.Lock()
	s.current.Round = n
	s.values[KeyRound] = strconv.FormatInt(n, 10)
	s.mu.Unlock()
}

// Keys lists every key the store knows how to validate.
func Keys() []string {
	return []string{KeyRoleID, KeyAgeBound, KeyGiveawayDuration, KeyRound}
}

func apply(s *Settings, key, value string) error {
	switch key {
	case KeyRoleID:
		id, err := snowflake.Parse(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a role id: %v", ErrInvalidValue, key, err)
		}
		s.RoleID = id
	case KeyAgeBound:
		days, err := strconv.Atoi(value)
		if err != nil || days < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number of days", ErrInvalidValue, key)
		}
		s.AgeBoundDays = days
	case KeyGiveawayDuration:
		d, err := ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
		}
		s.GiveawayDuration = d
	case KeyRound:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a round number", ErrInvalidValue, key)
		}
		s.Round = n
	}
	return nil
}

// ParseDuration accepts whole seconds ("3600") or a Go duration ("1h").
func ParseDuration(value string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs <= 0 {
			return 0, errors.New("duration must be positive")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return d, nil
}
