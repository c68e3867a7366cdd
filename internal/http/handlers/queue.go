package handlers

import (
	"net/http"

	"genstudio/internal/queue"
)

// Queue returns the unified queue: every kind's active jobs projected into
// QueueItems, oldest first.
func (a *App) Queue(w http.ResponseWriter, r *http.Request) {
	items := queue.Aggregate(a.Registry, a.queueSources())
	a.json(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}
