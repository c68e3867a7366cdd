package registry

import (
	"context"

	"genstudio/internal/backend"
	"genstudio/internal/domain"
)

// generationKind covers the four kinds that run the full pipeline. They share
// activity rules and differ only in label and navigation target.
type generationKind struct {
	api    API
	kind   domain.JobKind
	label  string
	target string
}

func (k *generationKind) Kind() domain.JobKind { return k.kind }
func (k *generationKind) Label() string        { return k.label }
func (k *generationKind) Clickable() bool      { return true }
func (k *generationKind) TargetPath() string   { return k.target }

func (k *generationKind) FetchOne(ctx context.Context, id string) (*domain.Job, error) {
	return k.api.Job(ctx, k.kind, id)
}

func (k *generationKind) FetchActive(ctx context.Context, opts backend.ListOptions) ([]domain.Job, error) {
	return k.api.Jobs(ctx, k.kind, opts)
}

// IsActive excludes exactly the two terminal statuses.
func (k *generationKind) IsActive(job domain.Job) bool {
	return !job.Status.Terminal()
}

func (k *generationKind) Normalize(job domain.Job) domain.QueueItem {
	return domain.QueueItem{
		ID:               job.ID,
		Kind:             k.kind,
		Label:            k.label,
		Status:           job.Status,
		Progress:         job.Progress,
		DownloadProgress: job.DownloadProgress,
		ETASeconds:       job.ETASeconds,
		Prompt:           job.Prompt,
		Model:            job.Model,
		ThumbURL:         job.PrimaryResultURL(),
		Error:            job.Error,
		Clickable:        true,
		TargetPath:       k.target,
		CreatedAt:        job.CreatedAt,
	}
}

// downloadKind tracks marketplace model downloads. There is no post-download
// pipeline, so only queued and downloading count as active, and the job's
// progress already is the download percentage.
type downloadKind struct {
	api API
}

func (k *downloadKind) Kind() domain.JobKind { return domain.KindDownload }
func (k *downloadKind) Label() string        { return "Model Download" }
func (k *downloadKind) Clickable() bool      { return false }
func (k *downloadKind) TargetPath() string   { return "/models" }

func (k *downloadKind) FetchActive(ctx context.Context, opts backend.ListOptions) ([]domain.Job, error) {
	return k.api.Jobs(ctx, domain.KindDownload, opts)
}

func (k *downloadKind) IsActive(job domain.Job) bool {
	return job.Status == domain.StatusQueued || job.Status == domain.StatusDownloading
}

func (k *downloadKind) Normalize(job domain.Job) domain.QueueItem {
	item := domain.QueueItem{
		ID:         job.ID,
		Kind:       domain.KindDownload,
		Label:      "Model Download",
		Status:     job.Status,
		Progress:   job.Progress,
		ETASeconds: job.ETASeconds,
		Model:      job.Model,
		Error:      job.Error,
		Clickable:  false,
		TargetPath: "/models",
		CreatedAt:  job.CreatedAt,
	}
	if job.Download != nil {
		item.Prompt = job.Download.ModelName
	}
	return item
}
