package handlers

import "net/http"

// Notifications returns the recent event ring, newest last.
func (a *App) Notifications(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"notifications": a.Notify.Recent()})
}
