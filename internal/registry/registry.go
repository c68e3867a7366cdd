// Package registry is the static catalog of job kinds. Each kind implements
// Behavior once; nothing dispatches on kind strings outside this package.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"genstudio/internal/backend"
	"genstudio/internal/domain"
)

// API is the slice of the worker client the registry needs.
type API interface {
	Job(ctx context.Context, kind domain.JobKind, id string) (*domain.Job, error)
	Jobs(ctx context.Context, kind domain.JobKind, opts backend.ListOptions) ([]domain.Job, error)
}

// Behavior bundles everything the orchestrator needs to know about one kind.
type Behavior interface {
	Kind() domain.JobKind
	Label() string
	FetchActive(ctx context.Context, opts backend.ListOptions) ([]domain.Job, error)
	IsActive(job domain.Job) bool
	Normalize(job domain.Job) domain.QueueItem
	Clickable() bool
	TargetPath() string
}

// SingleFetcher is implemented by kinds that support ownerless lookup of a
// single job. The download kind does not.
type SingleFetcher interface {
	FetchOne(ctx context.Context, id string) (*domain.Job, error)
}

// Registry keeps the kinds in registration order, which also fixes the probe
// order of ResolveJobByID.
type Registry struct {
	ordered []Behavior
	byKind  map[domain.JobKind]Behavior
	logger  zerolog.Logger
}

// New registers the five built-in kinds against the given worker API.
func New(api API, logger zerolog.Logger) *Registry {
	r := &Registry{byKind: make(map[domain.JobKind]Behavior), logger: logger}
	r.register(&generationKind{api: api, kind: domain.KindImage, label: "Image", target: "/generate"})
	r.register(&generationKind{api: api, kind: domain.KindVideo, label: "Video", target: "/video"})
	r.register(&generationKind{api: api, kind: domain.KindI2V, label: "Image to Video", target: "/i2v"})
	r.register(&generationKind{api: api, kind: domain.KindUpscale, label: "Upscale", target: "/upscale"})
	r.register(&downloadKind{api: api})
	return r
}

func (r *Registry) register(b Behavior) {
	r.ordered = append(r.ordered, b)
	r.byKind[b.Kind()] = b
}

// Behaviors returns all kinds in registration order.
func (r *Registry) Behaviors() []Behavior {
	out := make([]Behavior, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ByKind looks a kind up.
func (r *Registry) ByKind(kind domain.JobKind) (Behavior, bool) {
	b, ok := r.byKind[kind]
	return b, ok
}

// ResolveJobByID finds a job when only its id is known (deep links). Kinds are
// probed linearly in registration order; a not-found answer from one kind just
// moves the probe to the next. O(k) round trips worst case.
func (r *Registry) ResolveJobByID(ctx context.Context, id string) (*domain.Job, error) {
	for _, b := range r.ordered {
		sf, ok := b.(SingleFetcher)
		if !ok {
			continue
		}
		job, err := sf.FetchOne(ctx, id)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			// Transient failure: keep probing, the job may live elsewhere.
			r.logger.Warn().Err(err).
				Str("kind", string(b.Kind())).
				Str("job_id", id).
				Msg("registry: probe failed")
		}
	}
	return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
}
