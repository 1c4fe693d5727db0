// Command guardianpaws serves the rescue coordination API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guardianpaws/internal/blob"
	"guardianpaws/internal/config"
	"guardianpaws/internal/core"
	"guardianpaws/internal/httpapi"
	redisstore "guardianpaws/internal/infra/persistence/redis"
	"guardianpaws/internal/logging"
	"guardianpaws/internal/triage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const photoPruneInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "guardianpaws:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.Production())
	if !cfg.DotEnvLoaded {
		logger.Debug("no .env file found")
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := core.OpenPersistentStore(ctx, core.StorageConfig{
		Driver:      core.StorageDriver(cfg.StorageDriver),
		SQLitePath:  cfg.SQLitePath,
		PostgresDSN: cfg.PostgresDSN,
		Redis: redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		},
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	}, core.NewDefaultRulesEngine(), logger.With("component", "store"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()

	photos, err := blob.Open(ctx, blob.Config{
		Driver: blob.Driver(cfg.BlobDriver),
		FSRoot: cfg.BlobFSRoot,
		S3: blob.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		},
	})
	if err != nil {
		return fmt.Errorf("open photo store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	analyzer := triage.New(triage.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel, Timeout: cfg.TriageTimeout})
	svcLogger := logger.With("component", "service")
	svc := core.NewService(store,
		core.WithLogger(svcLogger),
		core.WithMetricsRecorder(metrics),
		core.WithAuditRecorder(core.LogAuditRecorder{Logger: logger.With("component", "audit")}),
		core.WithPhotoStore(photos),
		core.WithTriage(analyzer, cfg.TriageTimeout),
		core.WithMaxPhotoBytes(cfg.MaxPhotoBytes),
	)
	logger.Info("service ready", "storage", cfg.StorageDriver, "photos", photos.Driver(), "triage", analyzer.Name())

	if cfg.SeedDemo {
		_, seeded, err := svc.SeedDemo(ctx)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		if !seeded {
			logger.Info("store not empty, skipping demo seed")
		}
	}

	go prunePhotos(ctx, svc, svcLogger)

	router := httpapi.NewRouter(svc, httpapi.Options{
		Tokens:         httpapi.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		AdminToken:     cfg.AdminToken,
		Logger:         logger.With("component", "http"),
		Gatherer:       reg,
		PhotoURLExpiry: cfg.PhotoURLExpiry,
		MaxUploadBytes: cfg.MaxPhotoBytes + 1<<20,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Report submission waits on triage.
		WriteTimeout: cfg.TriageTimeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

func prunePhotos(ctx context.Context, svc *core.Service, logger core.Logger) {
	ticker := time.NewTicker(photoPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := svc.PrunePhotos(ctx); err != nil {
				logger.Warn("photo prune failed", "error", err)
			} else if removed > 0 {
				logger.Info("photo prune finished", "removed", removed)
			}
		}
	}
}
