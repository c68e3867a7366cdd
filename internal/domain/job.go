package domain

import "time"

// JobKind discriminates the tracked job categories.
type JobKind string

const (
	KindImage    JobKind = "image"
	KindVideo    JobKind = "video"
	KindI2V      JobKind = "i2v"
	KindUpscale  JobKind = "upscale"
	KindDownload JobKind = "download"
)

// JobStatus enumerates the pipeline stages. The string values are part of the
// wire contract with the worker backend and must round-trip unchanged.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusDownloading  JobStatus = "downloading"
	StatusLoadingModel JobStatus = "loading_model"
	StatusGenerating   JobStatus = "generating"
	StatusSaving       JobStatus = "saving"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
)

// Terminal reports whether the status is one of the two final stages.
// Once terminal, a job record is immutable history.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Rank orders statuses along the pipeline. Stages may be skipped but a job
// never re-enters an earlier one, so an update that would lower the rank of a
// tracked job is stale and must be dropped.
func (s JobStatus) Rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusDownloading:
		return 1
	case StatusLoadingModel:
		return 2
	case StatusGenerating:
		return 3
	case StatusSaving:
		return 4
	case StatusCompleted, StatusFailed:
		return 5
	default:
		return -1
	}
}

// ImageResult is one generated image of a batch.
type ImageResult struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Seed     int64  `json:"seed"`
}

// VideoResult is the artifact of a video or image-to-video job.
type VideoResult struct {
	ID        string  `json:"id"`
	Filename  string  `json:"filename"`
	URL       string  `json:"url"`
	Seed      int64   `json:"seed"`
	Duration  float64 `json:"duration"`
	FPS       int     `json:"fps"`
	NumFrames int     `json:"num_frames"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// UpscaleResult is the artifact of an upscale job.
type UpscaleResult struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	Scale  float64 `json:"scale"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// DownloadInfo carries the model-download specific fields of a job. For
// download jobs the top-level progress IS the download percentage.
type DownloadInfo struct {
	ModelID         int64   `json:"model_id,omitempty"`
	VersionID       int64   `json:"version_id,omitempty"`
	ModelName       string  `json:"model_name,omitempty"`
	Type            string  `json:"type,omitempty"`
	Filename        string  `json:"filename,omitempty"`
	DownloadURL     string  `json:"download_url,omitempty"`
	BaseModel       string  `json:"base_model,omitempty"`
	DownloadedBytes int64   `json:"downloaded_bytes,omitempty"`
	TotalBytes      int64   `json:"total_bytes,omitempty"`
	SpeedBPS        float64 `json:"speed_bytes_per_sec,omitempty"`
	LocalPath       string  `json:"local_path,omitempty"`
}

// Job is one tracked unit of asynchronous work on the remote worker. A single
// struct covers every kind; result payloads of the other kinds stay nil.
// SessionID is empty for orphan jobs.
type Job struct {
	ID        string    `json:"id"`
	Kind      JobKind   `json:"kind"`
	SessionID string    `json:"session_id,omitempty"`
	Status    JobStatus `json:"status"`
	Progress  float64   `json:"progress"`

	CurrentImage int     `json:"current_image,omitempty"`
	TotalImages  int     `json:"total_images,omitempty"`
	ETASeconds   float64 `json:"eta_seconds,omitempty"`
	Error        string  `json:"error,omitempty"`

	// Download sub-progress. For generation kinds this tracks the model
	// download phase and is distinct from Progress.
	DownloadProgress float64 `json:"download_progress,omitempty"`
	DownloadTotalMB  float64 `json:"download_total_mb,omitempty"`
	DownloadSpeed    float64 `json:"download_speed_mbps,omitempty"`

	// Request parameters.
	Prompt        string `json:"prompt,omitempty"`
	Model         string `json:"model,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	Steps         int    `json:"steps,omitempty"`
	NumImages     int    `json:"num_images,omitempty"`
	NumFrames     int    `json:"num_frames,omitempty"`
	FPS           int    `json:"fps,omitempty"`
	SourceAssetID string `json:"source_asset_id,omitempty"`

	// Results, populated on terminal success.
	BatchID  string         `json:"batch_id,omitempty"`
	Images   []ImageResult  `json:"images,omitempty"`
	Video    *VideoResult   `json:"video,omitempty"`
	Upscale  *UpscaleResult `json:"upscale,omitempty"`
	Download *DownloadInfo  `json:"download,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PrimaryResultURL returns the artifact URL used for session thumbnails and
// queue previews, or "" while the job has no result.
func (j *Job) PrimaryResultURL() string {
	switch {
	case len(j.Images) > 0:
		return j.Images[0].URL
	case j.Video != nil:
		return j.Video.URL
	case j.Upscale != nil:
		return j.Upscale.URL
	case j.Download != nil:
		return j.Download.LocalPath
	}
	return ""
}
