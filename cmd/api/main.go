// Package main is the entry point for the grooming API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/groompro/backend/internal/config"
	"github.com/groompro/backend/internal/handler"
	"github.com/groompro/backend/internal/hooks"
	"github.com/groompro/backend/internal/lock"
	"github.com/groompro/backend/internal/metrics"
	"github.com/groompro/backend/internal/middleware"
	"github.com/groompro/backend/internal/repo"
	"github.com/groompro/backend/internal/service"
	"github.com/groompro/backend/internal/worker"
	"github.com/groompro/backend/migrations"
)

// maxBodyBytes caps request bodies. A year of weekly pets payloads is still
// far below this.
const maxBodyBytes = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Migrations -------------------------------------------------------
	// goose needs a database/sql handle; borrow the pool's config for it.
	migrationDB := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, migrationDB, migrations.FS)
	if err != nil {
		slog.Error("failed to create migration provider", "error", err)
		os.Exit(1)
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	if err := migrationDB.Close(); err != nil {
		slog.Error("failed to release migration connection", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "count", len(results))

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid business timezone", "error", err)
		os.Exit(1)
	}

	// --- External adapters ------------------------------------------------
	// Each adapter is optional; an unset config value leaves it nil and the
	// dispatcher skips it.
	var notifier *hooks.Notifier
	if cfg.RabbitMQURL != "" {
		notifier = hooks.NewNotifier(cfg.RabbitMQURL)
		slog.Info("rabbitmq notifier enabled")
	}

	var calendarSync *hooks.CalendarSync
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" && cfg.GoogleCalendarID != "" {
		calendarSync, err = hooks.NewCalendarSync(context.Background(), hooks.CalendarOptions{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			TokenFile:    cfg.GoogleTokenFile,
			CalendarID:   cfg.GoogleCalendarID,
			Location:     loc,
		})
		if err != nil {
			slog.Error("calendar sync disabled", "error", err)
			calendarSync = nil
		} else {
			slog.Info("google calendar sync enabled", "calendar_id", cfg.GoogleCalendarID)
		}
	}

	var backup *hooks.Backup
	if cfg.BackupBucket != "" {
		backup, err = hooks.NewBackup(context.Background(), hooks.BackupOptions{
			Bucket:    cfg.BackupBucket,
			Region:    cfg.BackupRegion,
			Endpoint:  cfg.BackupEndpoint,
			PathStyle: cfg.BackupPathStyle,
		})
		if err != nil {
			slog.Error("backup disabled", "error", err)
			backup = nil
		} else {
			slog.Info("s3 backup enabled", "bucket", cfg.BackupBucket)
		}
	}

	dispatcher := hooks.NewDispatcher(hooks.DispatcherDeps{
		Notifier: notifier,
		Calendar: calendarSync,
		Backup:   backup,
		Logger:   logger,
	})

	groupLock := lock.NewGroupLock(lock.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// --- Repos and services -----------------------------------------------
	apptRepo := repo.NewAppointmentRepo(pool)
	clientRepo := repo.NewClientRepo(pool)
	catalogRepo := repo.NewCatalogRepo(pool)

	apptService := service.NewAppointmentService(service.AppointmentServiceDeps{
		Appointments: apptRepo,
		Tx:           repo.NewTxRunner(pool),
		Clients:      clientRepo,
		Catalog:      catalogRepo,
		Hooks:        dispatcher,
		Locks:        groupLock,
		Location:     loc,
		Logger:       logger,
	})
	clientService := service.NewClientService(clientRepo)
	catalogService := service.NewCatalogService(catalogRepo)

	// --- Reminder worker --------------------------------------------------
	reminders := worker.NewReminderScanner(worker.ReminderScannerDeps{
		Appointments: apptRepo,
		Sink:         dispatcher,
		Window:       cfg.ReminderWindow,
		Interval:     cfg.ReminderInterval,
		Logger:       logger,
	})
	if err := reminders.Start(); err != nil {
		slog.Error("failed to start reminder scanner", "error", err)
		os.Exit(1)
	}

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID → RealIP → Logger → Recoverer → CORS →
	// body limit. Identity wraps only /api so health and metrics stay open.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))

	r.Get("/healthz", handler.Health)
	r.Get("/openapi.yaml", handler.OpenAPISpec)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	server := handler.NewServer(apptService, clientService, catalogService, loc)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewIdentityHandler())
		server.Routes(r)
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	reminders.Stop()
	dispatcher.Wait()
	slog.Info("server stopped")
}
