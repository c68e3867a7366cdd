// Package session implements the lifecycle of named containers that group
// generated batches or jobs. The manager is generic over the association id
// type so image, video and bulk domains share one implementation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"genstudio/internal/domain"
)

// DefaultName is used until a title is derived or the user renames.
const DefaultName = "New Session"

// Session is one named container. Items are kept most-recent first.
type Session[T any] struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Items     []T       `json:"items"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	AutoNamed bool      `json:"auto_named"`
}

// Collection is the persisted document: the sessions of one domain plus the
// current-session pointer. CurrentID "" is the none sentinel.
type Collection[T any] struct {
	Sessions  []Session[T] `json:"sessions"`
	CurrentID string       `json:"current_session_id"`
}

// Store persists a collection. Save is full-replace; callers must not assume
// partial-write semantics.
type Store[T any] interface {
	Load(ctx context.Context) (Collection[T], error)
	Save(ctx context.Context, col Collection[T]) error
}

// Patch is a shallow merge of updatable session fields.
type Patch[T any] struct {
	Thumbnail *string
	Items     *[]T
}

// Manager owns one domain's session collection. All mutations go through it
// and every mutation writes the whole collection back.
type Manager[T any] struct {
	domainName string
	store      Store[T]
	logger     zerolog.Logger

	mu          sync.Mutex
	initialized bool
	col         Collection[T]
}

// NewManager builds a manager for one session domain ("image", "video", ...).
func NewManager[T any](domainName string, store Store[T], logger zerolog.Logger) *Manager[T] {
	return &Manager[T]{
		domainName: domainName,
		store:      store,
		logger:     logger.With().Str("sessions", domainName).Logger(),
	}
}

// Initialize loads the persisted collection. Repeated calls are no-ops.
func (m *Manager[T]) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked(ctx)
}

func (m *Manager[T]) initLocked(ctx context.Context) error {
	if m.initialized {
		return nil
	}
	col, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("load %s sessions: %w", m.domainName, err)
		}
		col = Collection[T]{}
	}
	// A dangling pointer from a corrupt document resolves to none.
	if col.CurrentID != "" && findSession(col.Sessions, col.CurrentID) < 0 {
		col.CurrentID = ""
	}
	m.col = col
	m.initialized = true
	return nil
}

// EnsureCurrent returns the current session, creating one when none exists.
func (m *Manager[T]) EnsureCurrent(ctx context.Context) (Session[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return Session[T]{}, err
	}
	if i := findSession(m.col.Sessions, m.col.CurrentID); i >= 0 {
		return m.col.Sessions[i], nil
	}
	return m.createLocked(ctx, "")
}

// Create allocates a fresh session and makes it current. An empty name gets
// the default title and stays auto-named.
func (m *Manager[T]) Create(ctx context.Context, name string) (Session[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return Session[T]{}, err
	}
	return m.createLocked(ctx, name)
}

func (m *Manager[T]) createLocked(ctx context.Context, name string) (Session[T], error) {
	s := Session[T]{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Items:     []T{},
	}
	if s.Name == "" {
		s.Name = DefaultName
		s.AutoNamed = true
	}
	m.col.Sessions = append([]Session[T]{s}, m.col.Sessions...)
	m.col.CurrentID = s.ID
	if err := m.persistLocked(ctx); err != nil {
		return Session[T]{}, err
	}
	m.logger.Info().Str("session_id", s.ID).Msg("session created")
	return s, nil
}

// Switch changes the current pointer without touching session data.
func (m *Manager[T]) Switch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return err
	}
	if findSession(m.col.Sessions, id) < 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	m.col.CurrentID = id
	return m.persistLocked(ctx)
}

// Rename sets a user-chosen name. A manual rename always wins over derived
// titles, so the auto-named flag is cleared.
func (m *Manager[T]) Rename(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return err
	}
	i := findSession(m.col.Sessions, id)
	if i < 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	m.col.Sessions[i].Name = name
	m.col.Sessions[i].AutoNamed = false
	return m.persistLocked(ctx)
}

// AutoRename applies a derived title. It is a no-op unless the session is
// still auto-named, and applies at most once.
func (m *Manager[T]) AutoRename(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return err
	}
	i := findSession(m.col.Sessions, id)
	if i < 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if !m.col.Sessions[i].AutoNamed || name == "" {
		return nil
	}
	m.col.Sessions[i].Name = name
	m.col.Sessions[i].AutoNamed = false
	return m.persistLocked(ctx)
}

// Update shallow-merges the patch into the session.
func (m *Manager[T]) Update(ctx context.Context, id string, patch Patch[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return err
	}
	i := findSession(m.col.Sessions, id)
	if i < 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if patch.Thumbnail != nil {
		m.col.Sessions[i].Thumbnail = *patch.Thumbnail
	}
	if patch.Items != nil {
		m.col.Sessions[i].Items = append([]T(nil), (*patch.Items)...)
	}
	return m.persistLocked(ctx)
}

// AddItem prepends an association id, keeping the list most-recent first.
func (m *Manager[T]) AddItem(ctx context.Context, id string, item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return err
	}
	i := findSession(m.col.Sessions, id)
	if i < 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	m.col.Sessions[i].Items = append([]T{item}, m.col.Sessions[i].Items...)
	return m.persistLocked(ctx)
}

// SetThumbnail is the job-completion hook target.
func (m *Manager[T]) SetThumbnail(ctx context.Context, id, url string) error {
	return m.Update(ctx, id, Patch[T]{Thumbnail: &url})
}

// Delete removes a session. Deleting the current one re-selects the most
// recently created remaining session, or none when the collection is empty.
func (m *Manager[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.initLocked(ctx); err != nil {
		return err
	}
	i := findSession(m.col.Sessions, id)
	if i < 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	m.col.Sessions = append(m.col.Sessions[:i], m.col.Sessions[i+1:]...)
	if m.col.CurrentID == id {
		m.col.CurrentID = newestID(m.col.Sessions)
	}
	return m.persistLocked(ctx)
}

// Current returns the current session, if any.
func (m *Manager[T]) Current() (Session[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := findSession(m.col.Sessions, m.col.CurrentID); i >= 0 {
		return m.col.Sessions[i], true
	}
	return Session[T]{}, false
}

// CurrentID returns the current pointer, "" when none.
func (m *Manager[T]) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.col.CurrentID
}

// Get returns one session by id.
func (m *Manager[T]) Get(id string) (Session[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := findSession(m.col.Sessions, id); i >= 0 {
		return m.col.Sessions[i], true
	}
	return Session[T]{}, false
}

// List returns all sessions, newest first.
func (m *Manager[T]) List() []Session[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]Session[T](nil), m.col.Sessions...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.After(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// persistLocked writes the full collection back. Caller holds m.mu.
func (m *Manager[T]) persistLocked(ctx context.Context) error {
	if err := m.store.Save(ctx, m.col); err != nil {
		m.logger.Error().Err(err).Msg("session persist failed")
		return fmt.Errorf("save %s sessions: %w", m.domainName, err)
	}
	return nil
}

func findSession[T any](sessions []Session[T], id string) int {
	if id == "" {
		return -1
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func newestID[T any](sessions []Session[T]) string {
	best := -1
	for i := range sessions {
		if best < 0 || sessions[i].CreatedAt.After(sessions[best].CreatedAt) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return sessions[best].ID
}
