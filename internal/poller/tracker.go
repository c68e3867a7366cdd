// Package poller reconciles tracked jobs against the worker backend. One
// Tracker owns the active set and the terminal history of a single job kind;
// nothing else mutates them.
package poller

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"genstudio/internal/backend"
	"genstudio/internal/domain"
	"genstudio/internal/notify"
	"genstudio/internal/registry"
)

// DefaultInterval is the documented poll cadence.
const DefaultInterval = time.Second

// Config wires a Tracker.
type Config struct {
	Behavior registry.Behavior
	Interval time.Duration
	Logger   zerolog.Logger
	Notifier *notify.Store
	// OnComplete runs after a job reaches completed with a result. Used to
	// push the artifact URL into the owning session's thumbnail.
	OnComplete func(job domain.Job)
}

type tracked struct {
	job domain.Job
	gen uint64
}

// Tracker polls every tracked job of one kind until it is terminal.
type Tracker struct {
	behavior   registry.Behavior
	interval   time.Duration
	logger     zerolog.Logger
	notifier   *notify.Store
	onComplete func(domain.Job)

	mu        sync.Mutex
	nextGen   uint64
	active    map[string]*tracked
	completed []domain.Job
	failed    []domain.Job
}

// New builds a Tracker. Interval defaults to DefaultInterval.
func New(cfg Config) *Tracker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		behavior:   cfg.Behavior,
		interval:   interval,
		logger:     cfg.Logger.With().Str("kind", string(cfg.Behavior.Kind())).Logger(),
		notifier:   cfg.Notifier,
		onComplete: cfg.OnComplete,
		active:     make(map[string]*tracked),
	}
}

// Kind returns the tracked job kind.
func (t *Tracker) Kind() domain.JobKind { return t.behavior.Kind() }

// Track starts polling a job. Already-terminal records go straight to
// history. Re-tracking an id bumps its generation so responses belonging to
// the previous tracking period are discarded.
func (t *Tracker) Track(job domain.Job) {
	job.Kind = t.behavior.Kind()
	if job.Status.Terminal() {
		t.mu.Lock()
		t.recordTerminalLocked(job)
		t.mu.Unlock()
		return
	}
	t.mu.Lock()
	t.nextGen++
	t.active[job.ID] = &tracked{job: job, gen: t.nextGen}
	t.mu.Unlock()
}

// Untrack stops polling a job. Requests already in flight are not aborted;
// their responses fail the generation check and are dropped.
func (t *Tracker) Untrack(id string) {
	t.mu.Lock()
	delete(t.active, id)
	t.mu.Unlock()
}

// Active returns the live jobs, newest first.
func (t *Tracker) Active() []domain.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Job, 0, len(t.active))
	for _, e := range t.active {
		out = append(out, e.job)
	}
	sortNewestFirst(out)
	return out
}

// Completed returns the completed history, newest first.
func (t *Tracker) Completed() []domain.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Job(nil), t.completed...)
}

// Failed returns the failed history, newest first.
func (t *Tracker) Failed() []domain.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Job(nil), t.failed...)
}

// Get finds a job in the active set or either history.
func (t *Tracker) Get(id string) (domain.Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.active[id]; ok {
		return e.job, true
	}
	for _, j := range t.completed {
		if j.ID == id {
			return j, true
		}
	}
	for _, j := range t.failed {
		if j.ID == id {
			return j, true
		}
	}
	return domain.Job{}, false
}

// DismissFailed drops one entry from the failed history.
func (t *Tracker) DismissFailed(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, j := range t.failed {
		if j.ID == id {
			t.failed = append(t.failed[:i], t.failed[i+1:]...)
			return true
		}
	}
	return false
}

// Resume seeds the active set from the backend's view, so jobs submitted in a
// previous process lifetime are picked up again.
func (t *Tracker) Resume(ctx context.Context) error {
	jobs, err := t.behavior.FetchActive(ctx, backend.ListOptions{ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("resume %s tracking: %w", t.behavior.Kind(), err)
	}
	for _, j := range jobs {
		if t.behavior.IsActive(j) {
			t.Track(j)
		}
	}
	t.logger.Info().Int("count", len(jobs)).Msg("poller: resumed tracking")
	return nil
}

// Run polls on a fixed interval until ctx is cancelled. An empty active set
// makes a tick a no-op; the ticker keeps running so newly tracked jobs are
// picked up on the next one.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// tick issues one status fetch per live job and applies the responses. Jobs
// are fetched independently; their completion order in history reflects
// response arrival, not submission order. Histories are re-sorted afterwards
// so the display stays deterministic.
func (t *Tracker) tick(ctx context.Context) {
	t.mu.Lock()
	snapshot := make(map[string]uint64, len(t.active))
	for id, e := range t.active {
		snapshot[id] = e.gen
	}
	t.mu.Unlock()
	if len(snapshot) == 0 {
		return
	}

	if sf, ok := t.behavior.(registry.SingleFetcher); ok {
		var wg sync.WaitGroup
		for id, gen := range snapshot {
			wg.Add(1)
			go func(id string, gen uint64) {
				defer wg.Done()
				job, err := sf.FetchOne(ctx, id)
				if err != nil {
					// Transient by policy: stay tracked, retry next tick.
					t.logger.Warn().Err(err).Str("job_id", id).Msg("poller: status fetch failed")
					return
				}
				t.apply(id, gen, *job)
			}(id, gen)
		}
		wg.Wait()
		return
	}

	// Kinds without single-job lookup reconcile against the full list.
	jobs, err := t.behavior.FetchActive(ctx, backend.ListOptions{})
	if err != nil {
		t.logger.Warn().Err(err).Msg("poller: list fetch failed")
		return
	}
	byID := make(map[string]domain.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}
	for id, gen := range snapshot {
		if j, ok := byID[id]; ok {
			t.apply(id, gen, j)
		}
	}
}

// apply replaces the tracked record with a fresh response, guarding against
// responses that arrive after the job was untracked or re-tracked, and
// against out-of-order responses that would move the job backwards.
func (t *Tracker) apply(id string, gen uint64, job domain.Job) {
	t.mu.Lock()
	e, ok := t.active[id]
	if !ok || e.gen != gen {
		t.mu.Unlock()
		t.logger.Debug().Str("job_id", id).Msg("poller: dropped stale response")
		return
	}
	if job.Status.Rank() < e.job.Status.Rank() {
		t.mu.Unlock()
		return
	}

	merged := mergeJob(e.job, job)
	if !merged.Status.Terminal() {
		e.job = merged
		t.mu.Unlock()
		return
	}

	delete(t.active, id)
	t.recordTerminalLocked(merged)
	t.mu.Unlock()

	t.announce(merged)
}

// recordTerminalLocked files a terminal job into history. Caller holds t.mu.
func (t *Tracker) recordTerminalLocked(job domain.Job) {
	if job.Status == domain.StatusCompleted {
		t.completed = append([]domain.Job{job}, t.completed...)
		sortNewestFirst(t.completed)
	} else {
		t.failed = append([]domain.Job{job}, t.failed...)
		sortNewestFirst(t.failed)
	}
}

// announce runs hooks and notifications outside the tracker lock.
func (t *Tracker) announce(job domain.Job) {
	if job.Status == domain.StatusCompleted {
		t.logger.Info().Str("job_id", job.ID).Msg("poller: job completed")
		if t.notifier != nil {
			t.notifier.Publish(notify.Event{
				Level:   notify.LevelSuccess,
				Message: fmt.Sprintf("%s job finished", t.behavior.Label()),
				Kind:    t.behavior.Kind(),
				JobID:   job.ID,
			})
		}
		if t.onComplete != nil && job.SessionID != "" && job.PrimaryResultURL() != "" {
			t.onComplete(job)
		}
		return
	}

	t.logger.Warn().Str("job_id", job.ID).Str("error", job.Error).Msg("poller: job failed")
	if t.notifier != nil {
		t.notifier.Publish(notify.Event{
			Level:   notify.LevelError,
			Message: fmt.Sprintf("%s job failed: %s", t.behavior.Label(), job.Error),
			Kind:    t.behavior.Kind(),
			JobID:   job.ID,
		})
	}
}

// mergeJob overlays a backend response on the tracked record, keeping locally
// known fields the response does not repeat.
func mergeJob(old, fresh domain.Job) domain.Job {
	fresh.Kind = old.Kind
	if fresh.SessionID == "" {
		fresh.SessionID = old.SessionID
	}
	if fresh.CreatedAt.IsZero() {
		fresh.CreatedAt = old.CreatedAt
	}
	if fresh.Prompt == "" {
		fresh.Prompt = old.Prompt
	}
	if fresh.Model == "" {
		fresh.Model = old.Model
	}
	return fresh
}

func sortNewestFirst(jobs []domain.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
}
