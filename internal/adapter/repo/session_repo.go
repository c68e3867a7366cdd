// Package repo provides the persistence adapters for session collections and
// settings. Each document is stored whole: one row (or file) per domain,
// replaced on every save.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"genstudio/internal/domain"
	"genstudio/internal/session"
)

// SessionStorePG implements session.Store on PostgreSQL. The collection is a
// jsonb document keyed by the session domain name.
type SessionStorePG[T any] struct {
	pool       *pgxpool.Pool
	domainName string
}

// NewSessionStorePG creates a session store for one domain ("image", "video",
// "bulk").
func NewSessionStorePG[T any](pool *pgxpool.Pool, domainName string) *SessionStorePG[T] {
	return &SessionStorePG[T]{pool: pool, domainName: domainName}
}

// Load fetches the collection document. A missing row maps to ErrNotFound.
func (r *SessionStorePG[T]) Load(ctx context.Context) (session.Collection[T], error) {
	query := `
SELECT data
FROM session_collections
WHERE domain = $1;
`
	var raw []byte
	if err := r.pool.QueryRow(ctx, query, r.domainName).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Collection[T]{}, domain.ErrNotFound
		}
		return session.Collection[T]{}, fmt.Errorf("load session collection %s: %w", r.domainName, err)
	}
	var col session.Collection[T]
	if err := json.Unmarshal(raw, &col); err != nil {
		return session.Collection[T]{}, fmt.Errorf("decode session collection %s: %w", r.domainName, err)
	}
	return col, nil
}

// Save replaces the collection document.
func (r *SessionStorePG[T]) Save(ctx context.Context, col session.Collection[T]) error {
	raw, err := json.Marshal(col)
	if err != nil {
		return fmt.Errorf("encode session collection %s: %w", r.domainName, err)
	}
	query := `
INSERT INTO session_collections (domain, data, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (domain) DO UPDATE
SET data = EXCLUDED.data,
    updated_at = NOW();
`
	if _, err := r.pool.Exec(ctx, query, r.domainName, raw); err != nil {
		return fmt.Errorf("save session collection %s: %w", r.domainName, err)
	}
	return nil
}

// SettingsStorePG keeps the single settings document in a one-row table.
type SettingsStorePG struct {
	pool *pgxpool.Pool
}

// NewSettingsStorePG creates the settings store.
func NewSettingsStorePG(pool *pgxpool.Pool) *SettingsStorePG {
	return &SettingsStorePG{pool: pool}
}

// Load fetches the settings document. A missing row maps to ErrNotFound.
func (r *SettingsStorePG) Load(ctx context.Context) (domain.Settings, error) {
	query := `
SELECT data
FROM settings
WHERE id = 1;
`
	var raw []byte
	if err := r.pool.QueryRow(ctx, query).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Settings{}, domain.ErrNotFound
		}
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Save replaces the settings document.
func (r *SettingsStorePG) Save(ctx context.Context, s domain.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	query := `
INSERT INTO settings (id, data, updated_at)
VALUES (1, $1, NOW())
ON CONFLICT (id) DO UPDATE
SET data = EXCLUDED.data,
    updated_at = NOW();
`
	if _, err := r.pool.Exec(ctx, query, raw); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
