package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"genstudio/internal/domain"
	"genstudio/internal/session"
	"genstudio/internal/storage"
)

// SessionStoreFS is the file-backed counterpart of SessionStorePG, used when
// no database is configured. Each domain lives in its own JSON file.
type SessionStoreFS[T any] struct {
	store *storage.FileStore
	key   string
}

// NewSessionStoreFS creates a file-backed session store for one domain.
func NewSessionStoreFS[T any](store *storage.FileStore, domainName string) *SessionStoreFS[T] {
	return &SessionStoreFS[T]{store: store, key: "sessions-" + domainName + ".json"}
}

// Load reads the collection file. A missing file maps to ErrNotFound.
func (r *SessionStoreFS[T]) Load(ctx context.Context) (session.Collection[T], error) {
	raw, err := r.store.Read(ctx, r.key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return session.Collection[T]{}, domain.ErrNotFound
		}
		return session.Collection[T]{}, err
	}
	var col session.Collection[T]
	if err := json.Unmarshal(raw, &col); err != nil {
		return session.Collection[T]{}, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return col, nil
}

// Save replaces the collection file.
func (r *SessionStoreFS[T]) Save(ctx context.Context, col session.Collection[T]) error {
	raw, err := json.MarshalIndent(col, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	_, err = r.store.Write(ctx, r.key, raw)
	return err
}

// SettingsStoreFS keeps the settings document in a single JSON file.
type SettingsStoreFS struct {
	store *storage.FileStore
}

// NewSettingsStoreFS creates the file-backed settings store.
func NewSettingsStoreFS(store *storage.FileStore) *SettingsStoreFS {
	return &SettingsStoreFS{store: store}
}

const settingsKey = "settings.json"

// Load reads the settings file. A missing file maps to ErrNotFound.
func (r *SettingsStoreFS) Load(ctx context.Context) (domain.Settings, error) {
	raw, err := r.store.Read(ctx, settingsKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Settings{}, domain.ErrNotFound
		}
		return domain.Settings{}, err
	}
	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Settings{}, fmt.Errorf("decode %s: %w", settingsKey, err)
	}
	return s, nil
}

// Save replaces the settings file.
func (r *SettingsStoreFS) Save(ctx context.Context, s domain.Settings) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", settingsKey, err)
	}
	_, err = r.store.Write(ctx, settingsKey, raw)
	return err
}
