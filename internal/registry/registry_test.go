package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"genstudio/internal/backend"
	"genstudio/internal/domain"
)

// fakeAPI serves canned jobs keyed by kind and id.
type fakeAPI struct {
	jobs    map[domain.JobKind]map[string]domain.Job
	probes  []domain.JobKind
	failOne map[domain.JobKind]error
}

func (f *fakeAPI) Job(ctx context.Context, kind domain.JobKind, id string) (*domain.Job, error) {
	f.probes = append(f.probes, kind)
	if err, ok := f.failOne[kind]; ok {
		return nil, err
	}
	if j, ok := f.jobs[kind][id]; ok {
		return &j, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAPI) Jobs(ctx context.Context, kind domain.JobKind, opts backend.ListOptions) ([]domain.Job, error) {
	out := make([]domain.Job, 0)
	for _, j := range f.jobs[kind] {
		out = append(out, j)
	}
	return out, nil
}

func newRegistry(api API) *Registry {
	return New(api, zerolog.Nop())
}

func TestNormalizePreservesIdentityFields(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := newRegistry(&fakeAPI{})

	for _, b := range r.Behaviors() {
		job := domain.Job{ID: "j-" + string(b.Kind()), Kind: b.Kind(), Status: domain.StatusGenerating, CreatedAt: created}
		item := b.Normalize(job)
		if item.ID != job.ID {
			t.Fatalf("kind %s: id mismatch: %q", b.Kind(), item.ID)
		}
		if !item.CreatedAt.Equal(created) {
			t.Fatalf("kind %s: created_at mismatch: %v", b.Kind(), item.CreatedAt)
		}
		if item.Status != job.Status {
			t.Fatalf("kind %s: status changed: %q", b.Kind(), item.Status)
		}
	}
}

func TestIsActiveSets(t *testing.T) {
	r := newRegistry(&fakeAPI{})
	all := []domain.JobStatus{
		domain.StatusQueued, domain.StatusDownloading, domain.StatusLoadingModel,
		domain.StatusGenerating, domain.StatusSaving, domain.StatusCompleted, domain.StatusFailed,
	}

	for _, b := range r.Behaviors() {
		for _, st := range all {
			got := b.IsActive(domain.Job{ID: "x", Status: st})
			var want bool
			if b.Kind() == domain.KindDownload {
				want = st == domain.StatusQueued || st == domain.StatusDownloading
			} else {
				want = st != domain.StatusCompleted && st != domain.StatusFailed
			}
			if got != want {
				t.Fatalf("kind %s status %s: IsActive = %v, want %v", b.Kind(), st, got, want)
			}
		}
	}
}

func TestDownloadNormalizeUsesDownloadProgress(t *testing.T) {
	r := newRegistry(&fakeAPI{})
	b, _ := r.ByKind(domain.KindDownload)

	item := b.Normalize(domain.Job{
		ID:       "d1",
		Status:   domain.StatusDownloading,
		Progress: 73,
		Download: &domain.DownloadInfo{ModelName: "Some Checkpoint"},
	})
	if item.Progress != 73 {
		t.Fatalf("download progress must surface as progress, got %v", item.Progress)
	}
	if item.Clickable {
		t.Fatal("download items are not clickable")
	}
	if item.Prompt != "Some Checkpoint" {
		t.Fatalf("expected model name as display text, got %q", item.Prompt)
	}
}

func TestResolveJobByIDProbesInOrder(t *testing.T) {
	api := &fakeAPI{jobs: map[domain.JobKind]map[string]domain.Job{
		domain.KindI2V: {"j1": {ID: "j1", Kind: domain.KindI2V, Status: domain.StatusQueued}},
	}}
	r := newRegistry(api)

	job, err := r.ResolveJobByID(context.Background(), "j1")
	if err != nil {
		t.Fatalf("ResolveJobByID returned error: %v", err)
	}
	if job.Kind != domain.KindI2V {
		t.Fatalf("resolved wrong kind: %s", job.Kind)
	}
	want := []domain.JobKind{domain.KindImage, domain.KindVideo, domain.KindI2V}
	if len(api.probes) != len(want) {
		t.Fatalf("probe order mismatch: %v", api.probes)
	}
	for i, k := range want {
		if api.probes[i] != k {
			t.Fatalf("probe %d = %s, want %s", i, api.probes[i], k)
		}
	}
}

func TestResolveJobByIDExhaustsAllKinds(t *testing.T) {
	api := &fakeAPI{}
	r := newRegistry(api)

	_, err := r.ResolveJobByID(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Download kind has no single fetch, so exactly the four generation kinds probe.
	if len(api.probes) != 4 {
		t.Fatalf("expected 4 probes, got %v", api.probes)
	}
}

func TestResolveJobByIDSurvivesTransientProbeFailure(t *testing.T) {
	api := &fakeAPI{
		failOne: map[domain.JobKind]error{domain.KindImage: errors.New("connection refused")},
		jobs: map[domain.JobKind]map[string]domain.Job{
			domain.KindVideo: {"j2": {ID: "j2", Kind: domain.KindVideo}},
		},
	}
	r := newRegistry(api)

	job, err := r.ResolveJobByID(context.Background(), "j2")
	if err != nil {
		t.Fatalf("ResolveJobByID returned error: %v", err)
	}
	if job.ID != "j2" {
		t.Fatalf("wrong job: %+v", job)
	}
}
