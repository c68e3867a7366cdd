// Package favorites keeps the user settings document, including the favorite
// model list, with optimistic writes against the settings store.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"genstudio/internal/domain"
)

// SettingsStore persists the whole settings document.
type SettingsStore interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, s domain.Settings) error
}

// Store serves settings reads from memory and applies favorite toggles
// optimistically: flip first, persist, roll back on failure, then re-read so
// memory converges on what the store actually holds.
type Store struct {
	repo   SettingsStore
	logger zerolog.Logger

	mu       sync.Mutex
	settings domain.Settings
}

// New builds a Store seeded with defaults until Initialize runs.
func New(repo SettingsStore, logger zerolog.Logger) *Store {
	return &Store{
		repo:     repo,
		logger:   logger.With().Str("component", "favorites").Logger(),
		settings: domain.DefaultSettings(),
	}
}

// Initialize loads the persisted settings. A missing document keeps defaults.
func (s *Store) Initialize(ctx context.Context) error {
	loaded, err := s.repo.Load(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("load settings: %w", err)
	}
	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
	return nil
}

// Settings returns a deep copy of the current document.
func (s *Store) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// Replace overwrites the whole settings document.
func (s *Store) Replace(ctx context.Context, next domain.Settings) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.mu.Lock()
	s.settings = next.Clone()
	s.mu.Unlock()
	return nil
}

// IsFavorited reports membership of a model id in the favorite list.
func (s *Store) IsFavorited(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.settings.Favorites, id) >= 0
}

// Toggle flips one favorite and returns the resulting membership. The local
// flip happens before the write so readers see the change immediately; a
// failed write restores the snapshot. Either way the store is re-read
// afterwards, so concurrent writers cannot leave memory drifted.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	snapshot := s.settings.Clone()
	favorited := s.toggleLocked(id)
	updated := s.settings.Clone()
	s.mu.Unlock()

	saveErr := s.repo.Save(ctx, updated)
	if saveErr != nil {
		s.mu.Lock()
		s.settings = snapshot
		s.mu.Unlock()
		s.logger.Error().Err(saveErr).Str("model", id).Msg("favorite toggle rolled back")
	}

	s.refresh(ctx)

	if saveErr != nil {
		return s.IsFavorited(id), fmt.Errorf("save settings: %w", saveErr)
	}
	return favorited, nil
}

func (s *Store) toggleLocked(id string) bool {
	if i := indexOf(s.settings.Favorites, id); i >= 0 {
		s.settings.Favorites = append(s.settings.Favorites[:i], s.settings.Favorites[i+1:]...)
		return false
	}
	s.settings.Favorites = append(s.settings.Favorites, id)
	return true
}

// refresh converges memory on the persisted document. Failures are logged and
// the current in-memory state stands until the next successful read.
func (s *Store) refresh(ctx context.Context) {
	loaded, err := s.repo.Load(ctx)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn().Err(err).Msg("settings refresh failed")
		}
		return
	}
	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
}

// RemoteID namespaces a model id from an external source so local and remote
// favorites cannot collide.
func RemoteID(source, id string) string {
	return source + ":" + id
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
