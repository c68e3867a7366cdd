// Package queue merges the per-kind active sets into the one list the unified
// queue view renders. It is a pure read-side projection.
package queue

import (
	"sort"

	"genstudio/internal/domain"
	"genstudio/internal/registry"
)

// Source exposes the active snapshot of one kind. *poller.Tracker satisfies it.
type Source interface {
	Kind() domain.JobKind
	Active() []domain.Job
}

// Aggregate normalizes every source's active jobs and returns them oldest
// first, so the head of the list is the next to finish. Sources with no data
// simply contribute nothing; a kind missing from the registry is skipped.
func Aggregate(reg *registry.Registry, sources []Source) []domain.QueueItem {
	items := make([]domain.QueueItem, 0)
	for _, src := range sources {
		if src == nil {
			continue
		}
		behavior, ok := reg.ByKind(src.Kind())
		if !ok {
			continue
		}
		for _, job := range src.Active() {
			if !behavior.IsActive(job) {
				continue
			}
			items = append(items, behavior.Normalize(job))
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}
