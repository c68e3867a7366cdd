package domain

import "time"

// QueueItem is the read-only projection of a Job used by the unified queue
// view. It is derived fresh on every normalization call and never persisted.
type QueueItem struct {
	ID               string    `json:"id"`
	Kind             JobKind   `json:"kind"`
	Label            string    `json:"label"`
	Status           JobStatus `json:"status"`
	Progress         float64   `json:"progress"`
	DownloadProgress float64   `json:"download_progress,omitempty"`
	ETASeconds       float64   `json:"eta_seconds,omitempty"`
	Prompt           string    `json:"prompt,omitempty"`
	Model            string    `json:"model,omitempty"`
	ThumbURL         string    `json:"thumb_url,omitempty"`
	Error            string    `json:"error,omitempty"`
	Clickable        bool      `json:"clickable"`
	TargetPath       string    `json:"target_path,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
