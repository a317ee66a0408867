// Package api assembles the HTTP surface: statement uploads, job status,
// result queries and metro paths.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dvloznov/barik-insights/internal/api/handlers"
	"github.com/dvloznov/barik-insights/internal/api/middleware"
	"github.com/dvloznov/barik-insights/internal/gcs"
	"github.com/dvloznov/barik-insights/internal/jobs"
	"github.com/dvloznov/barik-insights/internal/metrics"
	"github.com/dvloznov/barik-insights/internal/transit"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Deps are the collaborators of the router. Storage, Metrics and RateLimiter
// are optional.
type Deps struct {
	Publisher   jobs.Publisher
	Jobs        jobs.JobStore
	Results     jobs.ResultStore
	Network     *transit.Network
	Storage     gcs.Uploader
	Bucket      string
	UploadDir   string
	MaxBytes    int64
	CORSOrigins []string
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	Log         zerolog.Logger
}

// NewRouter builds the chi router.
func NewRouter(d Deps) http.Handler {
	if d.Network == nil {
		d.Network = transit.DefaultNetwork()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	statements := handlers.NewStatementsHandler(handlers.StatementsConfig{
		Publisher: d.Publisher,
		Results:   d.Results,
		Storage:   d.Storage,
		Bucket:    d.Bucket,
		UploadDir: d.UploadDir,
		MaxBytes:  d.MaxBytes,
	}, d.Log)
	jobsHandler := handlers.NewJobsHandler(d.Jobs, d.Log)
	metro := handlers.NewMetroHandler(d.Network)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         3600,
	}))

	r.Get("/health", handlers.Health(Version, time.Now()))
	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Handler)
		}

		r.Post("/statements", statements.Upload)
		r.Get("/statements/{runID}/years", statements.Years)
		r.Get("/statements/{runID}/summary/{year}", statements.Summary)
		r.Get("/statements/{runID}/journeys", statements.Journeys)
		r.Get("/statements/{runID}/insights", statements.Insights)

		r.Get("/jobs", jobsHandler.ListJobs)
		r.Get("/jobs/{jobID}", jobsHandler.GetJob)

		r.Get("/metro/lines", metro.Lines)
		r.Get("/metro/lines/{line}", metro.LineStations)
		r.Get("/metro/path", metro.Path)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
