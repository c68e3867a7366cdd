package handlers

import "net/http"

// Models lists the catalog with per-model favorite flags.
func (a *App) Models(w http.ResponseWriter, r *http.Request) {
	models := a.Catalog.Models()
	out := make([]map[string]any, 0, len(models))
	for _, m := range models {
		out = append(out, map[string]any{
			"id":            m.ID,
			"name":          m.Name,
			"type":          m.Type,
			"default_steps": m.DefaultSteps,
			"size_gb":       m.SizeGB,
			"favorited":     a.Favorites.IsFavorited(m.ID),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"models": out})
}
