package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"genstudio/internal/backend"
	"genstudio/internal/domain"
	"genstudio/internal/session"
)

type submitReply struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SubmitImage accepts an image generation request, forwards it to the worker
// and starts tracking the returned job.
func (a *App) SubmitImage(w http.ResponseWriter, r *http.Request) {
	var req backend.ImageRequest
	if !a.decode(w, r, &req) {
		return
	}
	model, err := a.Catalog.ValidateFor(domain.KindImage, req.Model)
	if err != nil {
		a.failWith(w, err)
		return
	}
	req.Steps = model.Steps(req.Steps)
	if req.NumImages <= 0 {
		req.NumImages = 1
	}

	jobID, err := a.Backend.SubmitImage(r.Context(), req)
	if err != nil {
		a.failWith(w, err)
		return
	}

	a.track(r.Context(), domain.Job{
		ID:        jobID,
		Kind:      domain.KindImage,
		SessionID: req.SessionID,
		Status:    domain.StatusQueued,
		Prompt:    req.Prompt,
		Model:     req.Model,
		Width:     req.Width,
		Height:    req.Height,
		Steps:     req.Steps,
		NumImages: req.NumImages,
		CreatedAt: time.Now().UTC(),
	}, a.ImageSessions)

	a.json(w, http.StatusAccepted, submitReply{JobID: jobID, Status: string(domain.StatusQueued), Message: "image job queued"})
}

// SubmitVideo accepts a text-to-video request.
func (a *App) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	var req backend.VideoRequest
	if !a.decode(w, r, &req) {
		return
	}
	model, err := a.Catalog.ValidateFor(domain.KindVideo, req.Model)
	if err != nil {
		a.failWith(w, err)
		return
	}
	req.Steps = model.Steps(req.Steps)

	jobID, err := a.Backend.SubmitVideo(r.Context(), req)
	if err != nil {
		a.failWith(w, err)
		return
	}

	a.track(r.Context(), domain.Job{
		ID:        jobID,
		Kind:      domain.KindVideo,
		SessionID: req.SessionID,
		Status:    domain.StatusQueued,
		Prompt:    req.Prompt,
		Model:     req.Model,
		Width:     req.Width,
		Height:    req.Height,
		Steps:     req.Steps,
		NumFrames: req.NumFrames,
		FPS:       req.FPS,
		CreatedAt: time.Now().UTC(),
	}, a.VideoSessions)

	a.json(w, http.StatusAccepted, submitReply{JobID: jobID, Status: string(domain.StatusQueued), Message: "video job queued"})
}

// SubmitI2V accepts an image-to-video request.
func (a *App) SubmitI2V(w http.ResponseWriter, r *http.Request) {
	var req backend.I2VRequest
	if !a.decode(w, r, &req) {
		return
	}
	if _, err := a.Catalog.ValidateFor(domain.KindI2V, req.Model); err != nil {
		a.failWith(w, err)
		return
	}
	if req.ImageAssetID == "" && req.ImageBase64 == "" {
		a.fail(w, http.StatusBadRequest, "image_asset_id or image_base64 is required")
		return
	}

	jobID, err := a.Backend.SubmitI2V(r.Context(), req)
	if err != nil {
		a.failWith(w, err)
		return
	}

	a.track(r.Context(), domain.Job{
		ID:            jobID,
		Kind:          domain.KindI2V,
		SessionID:     req.SessionID,
		Status:        domain.StatusQueued,
		Prompt:        req.Prompt,
		Model:         req.Model,
		Width:         req.Width,
		Height:        req.Height,
		NumFrames:     req.NumFrames,
		FPS:           req.FPS,
		SourceAssetID: req.ImageAssetID,
		CreatedAt:     time.Now().UTC(),
	}, a.VideoSessions)

	a.json(w, http.StatusAccepted, submitReply{JobID: jobID, Status: string(domain.StatusQueued), Message: "image-to-video job queued"})
}

// SubmitUpscale accepts a video upscale request.
func (a *App) SubmitUpscale(w http.ResponseWriter, r *http.Request) {
	var req backend.UpscaleRequest
	if !a.decode(w, r, &req) {
		return
	}
	if _, err := a.Catalog.ValidateFor(domain.KindUpscale, req.Model); err != nil {
		a.failWith(w, err)
		return
	}
	if req.VideoAssetID == "" {
		a.fail(w, http.StatusBadRequest, "video_asset_id is required")
		return
	}

	jobID, err := a.Backend.SubmitUpscale(r.Context(), req)
	if err != nil {
		a.failWith(w, err)
		return
	}

	a.track(r.Context(), domain.Job{
		ID:            jobID,
		Kind:          domain.KindUpscale,
		SessionID:     req.SessionID,
		Status:        domain.StatusQueued,
		Model:         req.Model,
		SourceAssetID: req.VideoAssetID,
		CreatedAt:     time.Now().UTC(),
	}, a.VideoSessions)

	a.json(w, http.StatusAccepted, submitReply{JobID: jobID, Status: string(domain.StatusQueued), Message: "upscale job queued"})
}

// SubmitDownload accepts a marketplace model download request.
func (a *App) SubmitDownload(w http.ResponseWriter, r *http.Request) {
	var req backend.DownloadRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.DownloadURL == "" || req.Filename == "" {
		a.fail(w, http.StatusBadRequest, "download_url and filename are required")
		return
	}

	jobID, err := a.Backend.SubmitDownload(r.Context(), req)
	if err != nil {
		a.failWith(w, err)
		return
	}

	a.track(r.Context(), domain.Job{
		ID:        jobID,
		Kind:      domain.KindDownload,
		Status:    domain.StatusQueued,
		Model:     req.ModelName,
		CreatedAt: time.Now().UTC(),
		Download: &domain.DownloadInfo{
			ModelID:     req.ModelID,
			VersionID:   req.VersionID,
			ModelName:   req.ModelName,
			Type:        req.Type,
			Filename:    req.Filename,
			DownloadURL: req.DownloadURL,
			BaseModel:   req.BaseModel,
		},
	}, nil)

	a.json(w, http.StatusAccepted, submitReply{JobID: jobID, Status: string(domain.StatusQueued), Message: "model download queued"})
}

// track registers the accepted job with its tracker and, when a session is
// given, files the job under it and derives the session title from the first
// prompt.
func (a *App) track(ctx context.Context, job domain.Job, sessions *session.Manager[string]) {
	if tr := a.tracker(job.Kind); tr != nil {
		tr.Track(job)
	}
	if sessions == nil || job.SessionID == "" {
		return
	}
	if err := sessions.AddItem(ctx, job.SessionID, job.ID); err != nil {
		a.Logger.Warn().Err(err).Str("session_id", job.SessionID).Msg("could not file job under session")
		return
	}
	if job.Prompt != "" {
		if err := sessions.AutoRename(ctx, job.SessionID, session.DeriveTitle(job.Prompt)); err != nil {
			a.Logger.Warn().Err(err).Str("session_id", job.SessionID).Msg("auto-rename failed")
		}
	}
}

// JobStatus returns one job by kind and id, preferring local tracking state
// and falling back to the worker for jobs this process never tracked.
func (a *App) JobStatus(kind domain.JobKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if tr := a.tracker(kind); tr != nil {
			if job, ok := tr.Get(id); ok {
				a.json(w, http.StatusOK, job)
				return
			}
		}
		if kind == domain.KindDownload {
			a.fail(w, http.StatusNotFound, "download "+id+" not found")
			return
		}
		job, err := a.Backend.Job(r.Context(), kind, id)
		if err != nil {
			a.failWith(w, err)
			return
		}
		a.json(w, http.StatusOK, job)
	}
}

// ListJobs returns the tracked jobs of one kind, newest first, optionally
// filtered by session and liveness.
func (a *App) ListJobs(kind domain.JobKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		activeOnly := r.URL.Query().Get("active") == "true"

		tr := a.tracker(kind)
		if tr == nil {
			a.fail(w, http.StatusNotFound, "unknown job kind")
			return
		}

		jobs := tr.Active()
		if !activeOnly {
			jobs = append(jobs, tr.Completed()...)
			jobs = append(jobs, tr.Failed()...)
		}
		filtered := jobs[:0]
		for _, j := range jobs {
			if sessionID != "" && j.SessionID != sessionID {
				continue
			}
			filtered = append(filtered, j)
		}

		if kind == domain.KindDownload {
			a.json(w, http.StatusOK, filtered)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"jobs": filtered})
	}
}

// ResolveJob looks a job up by id alone, probing every kind.
func (a *App) ResolveJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Registry.ResolveJobByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failWith(w, err)
		return
	}
	a.json(w, http.StatusOK, job)
}

// DismissFailed drops one entry from a kind's failed history.
func (a *App) DismissFailed(kind domain.JobKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tr := a.tracker(kind)
		if tr == nil || !tr.DismissFailed(id) {
			a.fail(w, http.StatusNotFound, "no failed job "+id)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
