package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dvloznov/barik-insights/internal/app"
	"github.com/dvloznov/barik-insights/internal/config"
	"github.com/dvloznov/barik-insights/internal/jobs"
	"github.com/dvloznov/barik-insights/internal/jobs/inmemory"
	"github.com/dvloznov/barik-insights/internal/logger"
	"github.com/dvloznov/barik-insights/internal/metrics"
)

const pollInterval = 500 * time.Millisecond

func main() {
	var (
		configPath  = flag.String("config", "", "Path to barik.yaml")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: worker [options] <statement>...")
		fmt.Fprintln(os.Stderr, "Statements are local paths or gs:// URIs.")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logger.New()

	sources := flag.Args()
	if len(sources) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	a, err := app.New(context.Background(), cfg, app.Remote)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	defer a.Close()
	log = a.Log

	m := metrics.New()
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
			log.Info().Str("addr", *metricsAddr).Msg("Serving metrics")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	results := inmemory.NewResultStore(len(sources))
	jobQueue := inmemory.NewQueue(len(sources), jobStore,
		inmemory.WithWorkers(cfg.Workers),
		inmemory.WithMaxRetries(cfg.MaxRetries),
		inmemory.WithMetrics(m),
	)

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	handler := jobs.NewStatementHandler(a.PipelineDeps(), results, m)
	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	ids := make([]string, 0, len(sources))
	for _, src := range sources {
		job := &jobs.ProcessStatementJob{Source: src}
		if err := jobQueue.PublishProcessStatement(ctx, job); err != nil {
			log.Fatal().Err(err).Str("source", src).Msg("Failed to enqueue statement")
		}
		ids = append(ids, job.JobID)
	}
	log.Info().Int("statements", len(ids)).Int("workers", cfg.Workers).Msg("Worker started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-quit:
			log.Warn().Msg("Interrupted")
			break wait
		case <-ticker.C:
			if allDone(ctx, jobStore, ids) {
				break wait
			}
		}
	}

	log.Info().Msg("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	failed := report(ctx, jobStore, ids)
	log.Info().Int("failed", failed).Msg("Worker service exited")
	if failed > 0 {
		a.Close()
		os.Exit(1)
	}
}

func allDone(ctx context.Context, store jobs.JobStore, ids []string) bool {
	for _, id := range ids {
		job, err := store.GetJob(ctx, id)
		if err != nil {
			return false
		}
		if job.Status != jobs.JobStatusCompleted && job.Status != jobs.JobStatusFailed {
			return false
		}
	}
	return true
}

// report prints one line per job and returns how many did not complete.
func report(ctx context.Context, store jobs.JobStore, ids []string) int {
	failed := 0
	for _, id := range ids {
		job, err := store.GetJob(context.WithoutCancel(ctx), id)
		if err != nil {
			failed++
			continue
		}
		switch job.Status {
		case jobs.JobStatusCompleted:
			fmt.Printf("%s\tcompleted\trun %s\tyears %v\n", job.Source, job.RunID, job.Years)
		default:
			failed++
			fmt.Printf("%s\t%s\t%s\n", job.Source, job.Status, job.Error)
		}
	}
	return failed
}
