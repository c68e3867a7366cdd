package handlers

import (
	"net/http"

	"genstudio/internal/domain"
	"genstudio/internal/favorites"
)

// GetSettings returns the settings document.
func (a *App) GetSettings(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Favorites.Settings())
}

// PutSettings replaces the settings document.
func (a *App) PutSettings(w http.ResponseWriter, r *http.Request) {
	var next domain.Settings
	if !a.decode(w, r, &next) {
		return
	}
	if err := a.Favorites.Replace(r.Context(), next); err != nil {
		a.failWith(w, err)
		return
	}
	a.json(w, http.StatusOK, a.Favorites.Settings())
}

// ToggleFavorite flips one model in the favorites set.
func (a *App) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModelID string `json:"model_id"`
		Source  string `json:"source,omitempty"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if req.ModelID == "" {
		a.fail(w, http.StatusBadRequest, "model_id is required")
		return
	}
	id := req.ModelID
	if req.Source != "" {
		id = favorites.RemoteID(req.Source, req.ModelID)
	}
	favorited, err := a.Favorites.Toggle(r.Context(), id)
	if err != nil {
		a.failWith(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"model_id": id, "favorited": favorited})
}
