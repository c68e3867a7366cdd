// Package backend is the HTTP client for the remote inference worker. It only
// translates between domain records and the worker's wire shapes; retry policy
// belongs to the poller.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
)

// Options controls how the worker client is configured.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to the worker backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// ListOptions filters active-job listings.
type ListOptions struct {
	SessionID  string
	ActiveOnly bool
}

// New validates options and builds a client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend: base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: base, httpClient: httpClient, logger: opts.Logger}, nil
}

func kindPath(kind domain.JobKind) string {
	switch kind {
	case domain.KindImage:
		return "/api/jobs"
	case domain.KindVideo:
		return "/api/video/jobs"
	case domain.KindI2V:
		return "/api/i2v/jobs"
	case domain.KindUpscale:
		return "/api/upscale/jobs"
	case domain.KindDownload:
		return "/api/civitai/downloads"
	}
	return ""
}

// Job fetches a single job by id. Not supported for the download kind, which
// has no single-job route on the worker.
func (c *Client) Job(ctx context.Context, kind domain.JobKind, id string) (*domain.Job, error) {
	if kind == domain.KindDownload {
		return nil, fmt.Errorf("backend: single fetch unsupported for kind %s", kind)
	}
	var job domain.Job
	if err := c.get(ctx, kindPath(kind)+"/"+url.PathEscape(id), &job); err != nil {
		return nil, err
	}
	job.Kind = kind
	return &job, nil
}

// Jobs fetches the job list for a kind, optionally filtered to one session and
// to active jobs only.
func (c *Client) Jobs(ctx context.Context, kind domain.JobKind, opts ListOptions) ([]domain.Job, error) {
	path := kindPath(kind)
	q := url.Values{}
	if opts.SessionID != "" {
		q.Set("session_id", opts.SessionID)
	}
	if opts.ActiveOnly {
		q.Set("active", "true")
	}
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	if kind == domain.KindDownload {
		var raw []downloadWire
		if err := c.get(ctx, path, &raw); err != nil {
			return nil, err
		}
		jobs := make([]domain.Job, 0, len(raw))
		for _, w := range raw {
			jobs = append(jobs, w.toJob())
		}
		return jobs, nil
	}

	var payload struct {
		Jobs []domain.Job `json:"jobs"`
	}
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}
	for i := range payload.Jobs {
		payload.Jobs[i].Kind = kind
	}
	return payload.Jobs, nil
}

// ImageRequest is the submission payload for an image generation job.
type ImageRequest struct {
	Prompt         string  `json:"prompt"`
	Model          string  `json:"model"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps,omitempty"`
	GuidanceScale  float64 `json:"guidance_scale,omitempty"`
	Seed           *int64  `json:"seed,omitempty"`
	NumImages      int     `json:"num_images"`
	BatchID        string  `json:"batch_id,omitempty"`
	SessionID      string  `json:"session_id,omitempty"`
}

// VideoRequest is the submission payload for a text-to-video job.
type VideoRequest struct {
	Prompt         string  `json:"prompt"`
	Model          string  `json:"model"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	NumFrames      int     `json:"num_frames,omitempty"`
	FPS            int     `json:"fps,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps,omitempty"`
	GuidanceScale  float64 `json:"guidance_scale,omitempty"`
	Seed           *int64  `json:"seed,omitempty"`
	SessionID      string  `json:"session_id,omitempty"`
}

// I2VRequest is the submission payload for an image-to-video job.
type I2VRequest struct {
	Prompt           string  `json:"prompt,omitempty"`
	Model            string  `json:"model"`
	NegativePrompt   string  `json:"negative_prompt,omitempty"`
	ImageAssetID     string  `json:"image_asset_id,omitempty"`
	ImageBase64      string  `json:"image_base64,omitempty"`
	NumFrames        int     `json:"num_frames,omitempty"`
	FPS              int     `json:"fps,omitempty"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	MotionBucketID   int     `json:"motion_bucket_id,omitempty"`
	NoiseAugStrength float64 `json:"noise_aug_strength,omitempty"`
	Seed             *int64  `json:"seed,omitempty"`
	SessionID        string  `json:"session_id,omitempty"`
}

// UpscaleRequest is the submission payload for a video upscale job.
type UpscaleRequest struct {
	VideoAssetID string  `json:"video_asset_id"`
	Model        string  `json:"model"`
	Scale        float64 `json:"scale,omitempty"`
	SessionID    string  `json:"session_id,omitempty"`
}

// DownloadRequest is the submission payload for a marketplace model download.
type DownloadRequest struct {
	ModelID     int64   `json:"civitai_model_id"`
	VersionID   int64   `json:"version_id"`
	ModelName   string  `json:"model_name"`
	Type        string  `json:"type"`
	Filename    string  `json:"filename"`
	DownloadURL string  `json:"download_url"`
	BaseModel   string  `json:"base_model,omitempty"`
	FileSizeKB  float64 `json:"file_size_kb,omitempty"`
}

type submitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SubmitImage enqueues an image generation job and returns its id.
func (c *Client) SubmitImage(ctx context.Context, req ImageRequest) (string, error) {
	return c.submit(ctx, kindPath(domain.KindImage), req)
}

// SubmitVideo enqueues a text-to-video job and returns its id.
func (c *Client) SubmitVideo(ctx context.Context, req VideoRequest) (string, error) {
	return c.submit(ctx, kindPath(domain.KindVideo), req)
}

// SubmitI2V enqueues an image-to-video job and returns its id.
func (c *Client) SubmitI2V(ctx context.Context, req I2VRequest) (string, error) {
	return c.submit(ctx, kindPath(domain.KindI2V), req)
}

// SubmitUpscale enqueues an upscale job and returns its id.
func (c *Client) SubmitUpscale(ctx context.Context, req UpscaleRequest) (string, error) {
	return c.submit(ctx, kindPath(domain.KindUpscale), req)
}

// SubmitDownload enqueues a model download. The worker answers with the full
// job record rather than a bare id.
func (c *Client) SubmitDownload(ctx context.Context, req DownloadRequest) (string, error) {
	var w downloadWire
	if err := c.post(ctx, kindPath(domain.KindDownload), req, &w); err != nil {
		return "", err
	}
	return w.ID, nil
}

func (c *Client) submit(ctx context.Context, path string, body any) (string, error) {
	var resp submitResponse
	if err := c.post(ctx, path, body, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("%w: submit returned no job id", domain.ErrBackendFailure)
	}
	return resp.JobID, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", domain.ErrBackendFailure, err)
		}
		return nil
	}

	return c.apiError(req, resp)
}

// errorEnvelope matches the worker's error body: detail is either a plain
// string or a structured object for resource rejections.
type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

type resourceDetail struct {
	Error     string                `json:"error"`
	Message   string                `json:"message"`
	Resources domain.ResourceStatus `json:"resources"`
}

func (c *Client) apiError(req *http.Request, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Detail) > 0 {
		var rd resourceDetail
		if err := json.Unmarshal(env.Detail, &rd); err == nil && rd.Error == "insufficient_resources" {
			return &domain.InsufficientResourcesError{Message: rd.Message, Resources: rd.Resources}
		}
		var msg string
		if err := json.Unmarshal(env.Detail, &msg); err == nil && msg != "" {
			return fmt.Errorf("%w: %s %s: %s", domain.ErrBackendFailure, req.Method, req.URL.Path, msg)
		}
	}

	if c.logger != nil {
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("path", req.URL.Path).
			Msg("backend: request failed")
	}
	return fmt.Errorf("%w: %s %s: status %d", domain.ErrBackendFailure, req.Method, req.URL.Path, resp.StatusCode)
}

// downloadWire is the worker's download-job shape.
type downloadWire struct {
	ID          string     `json:"id"`
	ModelID     int64      `json:"civitai_model_id"`
	VersionID   int64      `json:"version_id"`
	ModelName   string     `json:"model_name"`
	Type        string     `json:"type"`
	Filename    string     `json:"filename"`
	DownloadURL string     `json:"download_url"`
	BaseModel   string     `json:"base_model"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	Downloaded  int64      `json:"downloaded_bytes"`
	Total       int64      `json:"total_bytes"`
	Speed       float64    `json:"speed_bytes_per_sec"`
	Error       string     `json:"error"`
	LocalPath   string     `json:"local_path"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (w downloadWire) toJob() domain.Job {
	return domain.Job{
		ID:        w.ID,
		Kind:      domain.KindDownload,
		Status:    domain.JobStatus(w.Status),
		Progress:  w.Progress,
		Error:     w.Error,
		Model:     w.ModelName,
		CreatedAt: w.CreatedAt,
		StartedAt: w.StartedAt,
		Download: &domain.DownloadInfo{
			ModelID:         w.ModelID,
			VersionID:       w.VersionID,
			ModelName:       w.ModelName,
			Type:            w.Type,
			Filename:        w.Filename,
			DownloadURL:     w.DownloadURL,
			BaseModel:       w.BaseModel,
			DownloadedBytes: w.Downloaded,
			TotalBytes:      w.Total,
			SpeedBPS:        w.Speed,
			LocalPath:       w.LocalPath,
		},
		CompletedAt: w.CompletedAt,
	}
}
