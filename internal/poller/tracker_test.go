package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"genstudio/internal/backend"
	"genstudio/internal/domain"
	"genstudio/internal/notify"
)

// scriptedKind fakes a generation kind: FetchOne answers from a mutable map.
type scriptedKind struct {
	mu        sync.Mutex
	kind      domain.JobKind
	responses map[string]domain.Job
	errs      map[string]error
	fetches   int
}

func (s *scriptedKind) Kind() domain.JobKind { return s.kind }
func (s *scriptedKind) Label() string        { return "Video" }
func (s *scriptedKind) Clickable() bool      { return true }
func (s *scriptedKind) TargetPath() string   { return "/video" }

func (s *scriptedKind) IsActive(job domain.Job) bool { return !job.Status.Terminal() }

func (s *scriptedKind) Normalize(job domain.Job) domain.QueueItem {
	return domain.QueueItem{ID: job.ID, Kind: s.kind, Status: job.Status, CreatedAt: job.CreatedAt}
}

func (s *scriptedKind) FetchOne(ctx context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if err, ok := s.errs[id]; ok {
		return nil, err
	}
	if j, ok := s.responses[id]; ok {
		return &j, nil
	}
	return nil, domain.ErrNotFound
}

func (s *scriptedKind) FetchActive(ctx context.Context, opts backend.ListOptions) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Job, 0, len(s.responses))
	for _, j := range s.responses {
		out = append(out, j)
	}
	return out, nil
}

func (s *scriptedKind) setResponse(j domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.responses == nil {
		s.responses = map[string]domain.Job{}
	}
	s.responses[j.ID] = j
}

// listKind mimics the download kind: it deliberately lacks FetchOne, so the
// tracker has to reconcile through FetchActive.
type listKind struct {
	inner *scriptedKind
}

func (l *listKind) Kind() domain.JobKind { return domain.KindDownload }
func (l *listKind) Label() string        { return "Model Download" }
func (l *listKind) Clickable() bool      { return false }
func (l *listKind) TargetPath() string   { return "/models" }

func (l *listKind) IsActive(job domain.Job) bool {
	return job.Status == domain.StatusQueued || job.Status == domain.StatusDownloading
}
func (l *listKind) Normalize(job domain.Job) domain.QueueItem {
	return domain.QueueItem{ID: job.ID, Kind: domain.KindDownload, Status: job.Status, CreatedAt: job.CreatedAt}
}
func (l *listKind) FetchActive(ctx context.Context, opts backend.ListOptions) ([]domain.Job, error) {
	return l.inner.FetchActive(ctx, opts)
}

func newVideoTracker(kind *scriptedKind, onComplete func(domain.Job)) *Tracker {
	return New(Config{
		Behavior:   kind,
		Logger:     zerolog.Nop(),
		OnComplete: onComplete,
	})
}

func TestTickMovesCompletedJobToHistoryAndFiresHook(t *testing.T) {
	kind := &scriptedKind{kind: domain.KindVideo}
	var hooked []domain.Job
	tr := newVideoTracker(kind, func(j domain.Job) { hooked = append(hooked, j) })

	created := time.Now().Add(-time.Minute)
	tr.Track(domain.Job{ID: "j1", SessionID: "s1", Status: domain.StatusQueued, CreatedAt: created})

	kind.setResponse(domain.Job{
		ID:        "j1",
		Status:    domain.StatusCompleted,
		Progress:  100,
		Video:     &domain.VideoResult{URL: "/outputs/v1.mp4"},
		CreatedAt: created,
	})
	tr.tick(context.Background())

	if len(tr.Active()) != 0 {
		t.Fatalf("job still active: %+v", tr.Active())
	}
	done := tr.Completed()
	if len(done) != 1 || done[0].ID != "j1" {
		t.Fatalf("completed history wrong: %+v", done)
	}
	if done[0].SessionID != "s1" {
		t.Fatalf("session id lost in merge: %+v", done[0])
	}
	if len(hooked) != 1 || hooked[0].PrimaryResultURL() != "/outputs/v1.mp4" {
		t.Fatalf("completion hook not fired with result: %+v", hooked)
	}
}

func TestFailedFetchKeepsJobActiveForNextTick(t *testing.T) {
	kind := &scriptedKind{
		kind: domain.KindVideo,
		errs: map[string]error{"j1": errors.New("connection reset")},
	}
	tr := newVideoTracker(kind, nil)
	tr.Track(domain.Job{ID: "j1", Status: domain.StatusGenerating, CreatedAt: time.Now()})

	tr.tick(context.Background())
	tr.tick(context.Background())

	if len(tr.Active()) != 1 {
		t.Fatal("job must stay active through fetch failures")
	}
	if kind.fetches < 2 {
		t.Fatalf("expected a retry per tick, got %d fetches", kind.fetches)
	}
}

func TestStaleResponseAfterUntrackIsDropped(t *testing.T) {
	kind := &scriptedKind{kind: domain.KindVideo}
	tr := newVideoTracker(kind, nil)

	tr.Track(domain.Job{ID: "j1", Status: domain.StatusGenerating, CreatedAt: time.Now()})
	gen := tr.active["j1"].gen
	tr.Untrack("j1")

	// The in-flight response arrives after the job left tracking.
	tr.apply("j1", gen, domain.Job{ID: "j1", Status: domain.StatusCompleted})

	if len(tr.Completed()) != 0 {
		t.Fatal("stale response must not resurrect an untracked job")
	}
}

func TestResponseFromPreviousTrackingPeriodIsDropped(t *testing.T) {
	kind := &scriptedKind{kind: domain.KindVideo}
	tr := newVideoTracker(kind, nil)

	tr.Track(domain.Job{ID: "j1", Status: domain.StatusGenerating, CreatedAt: time.Now()})
	oldGen := tr.active["j1"].gen
	tr.Untrack("j1")
	tr.Track(domain.Job{ID: "j1", Status: domain.StatusQueued, CreatedAt: time.Now()})

	tr.apply("j1", oldGen, domain.Job{ID: "j1", Status: domain.StatusCompleted})

	if got := tr.active["j1"].job.Status; got != domain.StatusQueued {
		t.Fatalf("old-generation response leaked in: %s", got)
	}
}

func TestOutOfOrderStatusDoesNotMoveJobBackwards(t *testing.T) {
	kind := &scriptedKind{kind: domain.KindVideo}
	tr := newVideoTracker(kind, nil)

	tr.Track(domain.Job{ID: "j1", Status: domain.StatusGenerating, CreatedAt: time.Now()})
	gen := tr.active["j1"].gen

	tr.apply("j1", gen, domain.Job{ID: "j1", Status: domain.StatusDownloading})

	if got := tr.active["j1"].job.Status; got != domain.StatusGenerating {
		t.Fatalf("status regressed to %s", got)
	}
}

func TestFailedJobLandsInFailedHistoryWithError(t *testing.T) {
	kind := &scriptedKind{kind: domain.KindVideo}
	notifier := notify.NewStore()
	tr := New(Config{Behavior: kind, Logger: zerolog.Nop(), Notifier: notifier})

	tr.Track(domain.Job{ID: "j1", Status: domain.StatusGenerating, CreatedAt: time.Now()})
	kind.setResponse(domain.Job{ID: "j1", Status: domain.StatusFailed, Error: "CUDA out of memory"})
	tr.tick(context.Background())

	failed := tr.Failed()
	if len(failed) != 1 || failed[0].Error != "CUDA out of memory" {
		t.Fatalf("failed history wrong: %+v", failed)
	}
	events := notifier.Recent()
	if len(events) != 1 || events[0].Level != notify.LevelError {
		t.Fatalf("expected one error event, got %+v", events)
	}
	if !tr.DismissFailed("j1") || len(tr.Failed()) != 0 {
		t.Fatal("dismiss must drop the entry")
	}
}

func TestHistorySortedNewestFirst(t *testing.T) {
	kind := &scriptedKind{kind: domain.KindVideo}
	tr := newVideoTracker(kind, nil)

	old := time.Now().Add(-2 * time.Hour)
	recent := time.Now().Add(-time.Minute)
	tr.Track(domain.Job{ID: "old", Status: domain.StatusCompleted, CreatedAt: old})
	tr.Track(domain.Job{ID: "new", Status: domain.StatusCompleted, CreatedAt: recent})

	done := tr.Completed()
	if len(done) != 2 || done[0].ID != "new" || done[1].ID != "old" {
		t.Fatalf("history not newest-first: %+v", done)
	}
}

func TestListOnlyKindReconcilesViaListFetch(t *testing.T) {
	inner := &scriptedKind{kind: domain.KindDownload}
	tr := New(Config{Behavior: &listKind{inner: inner}, Logger: zerolog.Nop()})

	tr.Track(domain.Job{ID: "d1", Status: domain.StatusDownloading, CreatedAt: time.Now()})
	inner.setResponse(domain.Job{ID: "d1", Status: domain.StatusCompleted, Progress: 100})
	tr.tick(context.Background())

	if len(tr.Completed()) != 1 {
		t.Fatalf("download not completed via list reconcile: %+v", tr.Active())
	}
	if inner.fetches != 0 {
		t.Fatal("list-only kind must not use FetchOne")
	}
}

func TestResumeSeedsActiveSet(t *testing.T) {
	kind := &scriptedKind{kind: domain.KindVideo}
	kind.setResponse(domain.Job{ID: "j1", Status: domain.StatusGenerating, CreatedAt: time.Now()})
	kind.setResponse(domain.Job{ID: "j2", Status: domain.StatusCompleted, CreatedAt: time.Now()})

	tr := newVideoTracker(kind, nil)
	if err := tr.Resume(context.Background()); err != nil {
		t.Fatalf("Resume returned error: %v", err)
	}

	active := tr.Active()
	if len(active) != 1 || active[0].ID != "j1" {
		t.Fatalf("resume must track only non-terminal jobs: %+v", active)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	kind := &scriptedKind{kind: domain.KindVideo}
	tr := New(Config{Behavior: kind, Interval: 5 * time.Millisecond, Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
