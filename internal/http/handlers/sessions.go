package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"genstudio/internal/session"
)

// withSessions resolves the {domain} path segment to a manager.
func (a *App) withSessions(w http.ResponseWriter, r *http.Request) (*session.Manager[string], bool) {
	name := chi.URLParam(r, "domain")
	m, ok := a.sessionManager(name)
	if !ok {
		a.fail(w, http.StatusNotFound, "unknown session domain "+name)
	}
	return m, ok
}

type sessionListReply struct {
	Sessions  []session.Session[string] `json:"sessions"`
	CurrentID string                    `json:"current_session_id"`
}

// ListSessions returns all sessions of one domain plus the current pointer.
func (a *App) ListSessions(w http.ResponseWriter, r *http.Request) {
	m, ok := a.withSessions(w, r)
	if !ok {
		return
	}
	if err := m.Initialize(r.Context()); err != nil {
		a.failWith(w, err)
		return
	}
	a.json(w, http.StatusOK, sessionListReply{Sessions: m.List(), CurrentID: m.CurrentID()})
}

// CreateSession creates a session and makes it current.
func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	m, ok := a.withSessions(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	s, err := m.Create(r.Context(), req.Name)
	if err != nil {
		a.failWith(w, err)
		return
	}
	a.json(w, http.StatusCreated, s)
}

// EnsureCurrentSession returns the current session, creating one if needed.
func (a *App) EnsureCurrentSession(w http.ResponseWriter, r *http.Request) {
	m, ok := a.withSessions(w, r)
	if !ok {
		return
	}
	s, err := m.EnsureCurrent(r.Context())
	if err != nil {
		a.failWith(w, err)
		return
	}
	a.json(w, http.StatusOK, s)
}

// SwitchSession moves the current pointer.
func (a *App) SwitchSession(w http.ResponseWriter, r *http.Request) {
	m, ok := a.withSessions(w, r)
	if !ok {
		return
	}
	if err := m.Switch(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.failWith(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateSession applies a rename and/or a field patch.
func (a *App) UpdateSession(w http.ResponseWriter, r *http.Request) {
	m, ok := a.withSessions(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	var req struct {
		Name      *string   `json:"name"`
		Thumbnail *string   `json:"thumbnail"`
		Items     *[]string `json:"items"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if req.Name != nil {
		if err := m.Rename(r.Context(), id, *req.Name); err != nil {
			a.failWith(w, err)
			return
		}
	}
	if req.Thumbnail != nil || req.Items != nil {
		patch := session.Patch[string]{Thumbnail: req.Thumbnail, Items: req.Items}
		if err := m.Update(r.Context(), id, patch); err != nil {
			a.failWith(w, err)
			return
		}
	}
	s, found := m.Get(id)
	if !found {
		a.fail(w, http.StatusNotFound, "session "+id+" not found")
		return
	}
	a.json(w, http.StatusOK, s)
}

// AutoRenameSession applies a derived title unless the user already named the
// session.
func (a *App) AutoRenameSession(w http.ResponseWriter, r *http.Request) {
	m, ok := a.withSessions(w, r)
	if !ok {
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := m.AutoRename(r.Context(), id, session.DeriveTitle(req.Prompt)); err != nil {
		a.failWith(w, err)
		return
	}
	s, found := m.Get(id)
	if !found {
		a.fail(w, http.StatusNotFound, "session "+id+" not found")
		return
	}
	a.json(w, http.StatusOK, s)
}

// DeleteSession removes a session; deleting the current one falls back to the
// newest remaining.
func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	m, ok := a.withSessions(w, r)
	if !ok {
		return
	}
	if err := m.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.failWith(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
