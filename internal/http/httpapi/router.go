// Package httpapi assembles the chi router for the orchestration API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"genstudio/internal/domain"
	"genstudio/internal/http/handlers"
	"genstudio/internal/middleware"
)

// Options carries router-level configuration.
type Options struct {
	CORSOrigins     []string
	RateLimitPerMin int
}

// NewRouter wires every endpoint. Submission routes carry a per-IP rate
// limit; everything else is read-mostly and unlimited.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.CORSOrigins),
	)

	limit := opts.RateLimitPerMin
	if limit <= 0 {
		limit = 60
	}
	submitLimit := middleware.RateLimit(limit, time.Minute)

	r.Get("/api/health", app.Health)
	r.Get("/api/models", app.Models)
	r.Get("/api/queue", app.Queue)
	r.Get("/api/notifications", app.Notifications)

	r.Route("/api/jobs", func(r chi.Router) {
		r.With(submitLimit).Post("/", app.SubmitImage)
		r.Get("/", app.ListJobs(domain.KindImage))
		r.Get("/resolve/{id}", app.ResolveJob)
		r.Get("/{id}", app.JobStatus(domain.KindImage))
		r.Delete("/{id}/failed", app.DismissFailed(domain.KindImage))
	})

	r.Route("/api/video/jobs", func(r chi.Router) {
		r.With(submitLimit).Post("/", app.SubmitVideo)
		r.Get("/", app.ListJobs(domain.KindVideo))
		r.Get("/{id}", app.JobStatus(domain.KindVideo))
		r.Delete("/{id}/failed", app.DismissFailed(domain.KindVideo))
	})

	r.Route("/api/i2v/jobs", func(r chi.Router) {
		r.With(submitLimit).Post("/", app.SubmitI2V)
		r.Get("/", app.ListJobs(domain.KindI2V))
		r.Get("/{id}", app.JobStatus(domain.KindI2V))
		r.Delete("/{id}/failed", app.DismissFailed(domain.KindI2V))
	})

	r.Route("/api/upscale/jobs", func(r chi.Router) {
		r.With(submitLimit).Post("/", app.SubmitUpscale)
		r.Get("/", app.ListJobs(domain.KindUpscale))
		r.Get("/{id}", app.JobStatus(domain.KindUpscale))
		r.Delete("/{id}/failed", app.DismissFailed(domain.KindUpscale))
	})

	r.Route("/api/civitai/downloads", func(r chi.Router) {
		r.With(submitLimit).Post("/", app.SubmitDownload)
		r.Get("/", app.ListJobs(domain.KindDownload))
		r.Get("/{id}", app.JobStatus(domain.KindDownload))
		r.Delete("/{id}/failed", app.DismissFailed(domain.KindDownload))
	})

	r.Route("/api/sessions/{domain}", func(r chi.Router) {
		r.Get("/", app.ListSessions)
		r.Post("/", app.CreateSession)
		r.Post("/ensure-current", app.EnsureCurrentSession)
		r.Put("/{id}", app.UpdateSession)
		r.Post("/{id}/switch", app.SwitchSession)
		r.Post("/{id}/auto-rename", app.AutoRenameSession)
		r.Delete("/{id}", app.DeleteSession)
	})

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", app.GetSettings)
		r.Put("/", app.PutSettings)
		r.Post("/favorites/toggle", app.ToggleFavorite)
	})

	return r
}
