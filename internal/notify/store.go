// Package notify is an explicit publish/subscribe store for user-facing
// events. It is injected where needed instead of living as process-global
// state, so tests and multiple surfaces can hold their own instance.
package notify

import (
	"sync"
	"time"

	"genstudio/internal/domain"
)

// Level classifies an event for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Event is one notification.
type Event struct {
	Level   Level          `json:"level"`
	Message string         `json:"message"`
	Kind    domain.JobKind `json:"kind,omitempty"`
	JobID   string         `json:"job_id,omitempty"`
	Time    time.Time      `json:"time"`
}

const (
	recentCap = 100
	subBuffer = 16
)

// Store fans events out to subscribers and keeps a bounded recent history for
// pull-based consumers.
type Store struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	recent []Event
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func must be called to
// release the channel. Slow listeners drop events rather than block Publish.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan Event, subBuffer)
	s.subs[id] = ch
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish records the event and delivers it to every subscriber.
func (s *Store) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, e)
	if len(s.recent) > recentCap {
		s.recent = s.recent[len(s.recent)-recentCap:]
	}
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Recent returns the retained history, oldest first.
func (s *Store) Recent() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.recent))
	copy(out, s.recent)
	return out
}
