package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/barik-insights/internal/api"
	"github.com/dvloznov/barik-insights/internal/api/middleware"
	"github.com/dvloznov/barik-insights/internal/app"
	"github.com/dvloznov/barik-insights/internal/config"
	"github.com/dvloznov/barik-insights/internal/jobs"
	"github.com/dvloznov/barik-insights/internal/jobs/inmemory"
	"github.com/dvloznov/barik-insights/internal/logger"
	"github.com/dvloznov/barik-insights/internal/metrics"
)

// resultCapacity bounds the processed statements kept in memory.
const resultCapacity = 256

func main() {
	var (
		configPath = flag.String("config", "", "Path to barik.yaml")
		uploadDir  = flag.String("upload-dir", "", "Directory for uploads when no GCS bucket is configured (defaults to a temp dir)")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, app.Remote)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	defer a.Close()
	log = a.Log

	if a.Storage == nil {
		log.Warn().Msg("No GCS bucket configured - uploads are kept on local disk")
	}

	m := metrics.New()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	results := inmemory.NewResultStore(resultCapacity)
	jobQueue := inmemory.NewQueue(cfg.QueueBuffer, jobStore,
		inmemory.WithWorkers(cfg.Workers),
		inmemory.WithMaxRetries(cfg.MaxRetries),
		inmemory.WithMetrics(m),
	)

	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, log))
	defer cancelWorker()

	handler := jobs.NewStatementHandler(a.PipelineDeps(), results, m)
	if err := jobQueue.Start(workerCtx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}
	log.Info().Int("workers", cfg.Workers).Msg("Job workers started")

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, m)
	defer limiter.Stop()

	router := api.NewRouter(api.Deps{
		Publisher:   jobQueue,
		Jobs:        jobStore,
		Results:     results,
		Network:     a.Annual.Network,
		Storage:     a.Uploader(),
		Bucket:      cfg.GCSBucket,
		UploadDir:   *uploadDir,
		MaxBytes:    cfg.MaxUploadBytes,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     m,
		RateLimiter: limiter,
		Log:         log,
	})

	server := &http.Server{
		Addr:         cfg.APIAddr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight jobs finish before cancelling the workers
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
