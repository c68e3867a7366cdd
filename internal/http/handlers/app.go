// Package handlers holds the HTTP endpoints of the orchestration API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"genstudio/internal/backend"
	"genstudio/internal/catalog"
	"genstudio/internal/domain"
	"genstudio/internal/favorites"
	"genstudio/internal/notify"
	"genstudio/internal/poller"
	"genstudio/internal/queue"
	"genstudio/internal/registry"
	"genstudio/internal/session"
)

// App bundles the wired components the endpoints operate on.
type App struct {
	Logger   zerolog.Logger
	Catalog  *catalog.Catalog
	Backend  *backend.Client
	Registry *registry.Registry
	Trackers map[domain.JobKind]*poller.Tracker

	ImageSessions *session.Manager[string]
	VideoSessions *session.Manager[string]
	BulkSessions  *session.Manager[string]

	Favorites *favorites.Store
	Notify    *notify.Store
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// detail mirrors the worker's error envelope so clients see one shape from
// both services.
func (a *App) fail(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]any{"detail": msg})
}

// failWith maps domain errors onto status codes. Resource rejections keep
// their structured payload.
func (a *App) failWith(w http.ResponseWriter, err error) {
	var ire *domain.InsufficientResourcesError
	switch {
	case errors.As(err, &ire):
		a.json(w, http.StatusInsufficientStorage, map[string]any{
			"detail": map[string]any{
				"error":     "insufficient_resources",
				"message":   ire.Message,
				"resources": ire.Resources,
			},
		})
	case errors.Is(err, domain.ErrNotFound):
		a.fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnknownModel), errors.Is(err, domain.ErrInvalidInput):
		a.fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrBackendFailure):
		a.fail(w, http.StatusBadGateway, err.Error())
	default:
		a.fail(w, http.StatusInternalServerError, err.Error())
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (a *App) tracker(kind domain.JobKind) *poller.Tracker {
	return a.Trackers[kind]
}

// queueSources adapts the tracker map for the aggregator.
func (a *App) queueSources() []queue.Source {
	sources := make([]queue.Source, 0, len(a.Trackers))
	for _, b := range a.Registry.Behaviors() {
		if tr, ok := a.Trackers[b.Kind()]; ok {
			sources = append(sources, tr)
		}
	}
	return sources
}

// sessionManager maps a URL domain segment to its manager.
func (a *App) sessionManager(name string) (*session.Manager[string], bool) {
	switch name {
	case "image":
		return a.ImageSessions, a.ImageSessions != nil
	case "video":
		return a.VideoSessions, a.VideoSessions != nil
	case "bulk":
		return a.BulkSessions, a.BulkSessions != nil
	}
	return nil, false
}
