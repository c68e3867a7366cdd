package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/backend"
	"genstudio/internal/catalog"
	"genstudio/internal/domain"
	"genstudio/internal/favorites"
	"genstudio/internal/http/handlers"
	httpapi "genstudio/internal/http/httpapi"
	"genstudio/internal/infra"
	"genstudio/internal/notify"
	"genstudio/internal/poller"
	"genstudio/internal/registry"
	"genstudio/internal/session"
	"genstudio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	models, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load model catalog")
	}

	client, err := backend.New(backend.Options{
		BaseURL:    cfg.BackendBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.BackendTimeout},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build worker client")
	}

	// Persistence: Postgres when DATABASE_URL is set, JSON files otherwise.
	var (
		imageStore    session.Store[string]
		videoStore    session.Store[string]
		bulkStore     session.Store[string]
		settingsStore favorites.SettingsStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		if err := infra.Migrate(cfg.DatabaseURL, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
		imageStore = repo.NewSessionStorePG[string](pool, "image")
		videoStore = repo.NewSessionStorePG[string](pool, "video")
		bulkStore = repo.NewSessionStorePG[string](pool, "bulk")
		settingsStore = repo.NewSettingsStorePG(pool)
	} else {
		files, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare data directory")
		}
		imageStore = repo.NewSessionStoreFS[string](files, "image")
		videoStore = repo.NewSessionStoreFS[string](files, "video")
		bulkStore = repo.NewSessionStoreFS[string](files, "bulk")
		settingsStore = repo.NewSettingsStoreFS(files)
		logger.Info().Str("dir", cfg.DataDir).Msg("using file-backed persistence")
	}

	imageSessions := session.NewManager[string]("image", imageStore, logger)
	videoSessions := session.NewManager[string]("video", videoStore, logger)
	bulkSessions := session.NewManager[string]("bulk", bulkStore, logger)
	for name, m := range map[string]*session.Manager[string]{
		"image": imageSessions, "video": videoSessions, "bulk": bulkSessions,
	} {
		if err := m.Initialize(ctx); err != nil {
			logger.Fatal().Err(err).Str("domain", name).Msg("failed to load sessions")
		}
	}

	favs := favorites.New(settingsStore, logger)
	if err := favs.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load settings")
	}

	notifier := notify.NewStore()
	reg := registry.New(client, logger)

	// Completed generation jobs push their artifact into the owning session.
	sessionsByKind := map[domain.JobKind]*session.Manager[string]{
		domain.KindImage:   imageSessions,
		domain.KindVideo:   videoSessions,
		domain.KindI2V:     videoSessions,
		domain.KindUpscale: videoSessions,
	}
	thumbnailHook := func(mgr *session.Manager[string]) func(domain.Job) {
		if mgr == nil {
			return nil
		}
		return func(job domain.Job) {
			if err := mgr.SetThumbnail(context.Background(), job.SessionID, job.PrimaryResultURL()); err != nil {
				logger.Warn().Err(err).Str("job_id", job.ID).Msg("thumbnail update failed")
			}
		}
	}

	trackers := make(map[domain.JobKind]*poller.Tracker)
	for _, b := range reg.Behaviors() {
		tr := poller.New(poller.Config{
			Behavior:   b,
			Interval:   cfg.PollInterval,
			Logger:     logger,
			Notifier:   notifier,
			OnComplete: thumbnailHook(sessionsByKind[b.Kind()]),
		})
		if err := tr.Resume(ctx); err != nil {
			logger.Warn().Err(err).Str("kind", string(b.Kind())).Msg("could not resume tracking")
		}
		go tr.Run(ctx)
		trackers[b.Kind()] = tr
	}

	app := &handlers.App{
		Logger:        logger,
		Catalog:       models,
		Backend:       client,
		Registry:      reg,
		Trackers:      trackers,
		ImageSessions: imageSessions,
		VideoSessions: videoSessions,
		BulkSessions:  bulkSessions,
		Favorites:     favs,
		Notify:        notifier,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("orchestrator listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("orchestrator stopped")
}
