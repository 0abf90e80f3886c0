package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/absence"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/attachment"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/auth"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/calendar"
	"github.com/GoncaloAzev14/timesense-sub000/internal/domain/settings"
	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/config"
	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/db"
	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/jobs"
	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/metrics"
	absencehandler "github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/handlers/absence"
	authhandler "github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/handlers/auth"
	calendarhandler "github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/handlers/calendar"
	settingshandler "github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/handlers/settings"
	"github.com/GoncaloAzev14/timesense-sub000/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	userStore := auth.NewStore(pool)
	authService := auth.NewService(userStore, cfg.JWTSecret, cfg.TokenTTL)
	settingsService := settings.NewService(settings.NewStore(pool))
	absenceStore := absence.NewStore(pool)
	attachmentStore := attachment.NewStore(pool)
	absenceService := absence.NewService(pool, absenceStore, userStore, settingsService, attachmentStore, m, cfg.BulkChunkSize)
	calendarService := calendar.NewService(absenceStore, userStore, settingsService, m)
	perms := auth.Permissions{}

	scheduler := jobs.NewScheduler(absenceService, m)
	if err := scheduler.Start(cfg.CompletionSchedule); err != nil {
		log.Fatalf("scheduler start failed: %v", err)
	}
	defer scheduler.Stop()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Metrics(m))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authService)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/auth/me", authHandler.HandleMe)

		absenceHandler := absencehandler.NewHandler(absenceService, attachmentStore, perms, scheduler, cfg.MaxAttachmentBytes, cfg.MaxAttachmentsPerOp)
		absenceHandler.RegisterRoutes(r)

		calendarHandler := calendarhandler.NewHandler(calendarService, perms)
		calendarHandler.RegisterRoutes(r)

		settingsHandler := settingshandler.NewHandler(settingsService, perms)
		settingsHandler.RegisterRoutes(r)
	})

	log.Printf("timesense server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
