// Package app wires configuration into the collaborators shared by the
// binaries: reference data, Cloud Storage, BigQuery, Gemini and Notion.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/barik-insights/internal/annual"
	"github.com/dvloznov/barik-insights/internal/config"
	"github.com/dvloznov/barik-insights/internal/gcs"
	infra "github.com/dvloznov/barik-insights/internal/infra/bigquery"
	"github.com/dvloznov/barik-insights/internal/logger"
	"github.com/dvloznov/barik-insights/internal/notionsync"
	"github.com/dvloznov/barik-insights/internal/pipeline"
	"github.com/dvloznov/barik-insights/internal/recap"
	"github.com/dvloznov/barik-insights/internal/refdata"
	"github.com/dvloznov/barik-insights/internal/tariff"
	"github.com/dvloznov/barik-insights/internal/transit"
)

// Options selects the remote collaborators to connect. Each one is only
// connected when the configuration enables it too.
type Options struct {
	Storage  bool
	BigQuery bool
	Recap    bool
	Notion   bool
}

// Remote connects every collaborator the configuration enables.
var Remote = Options{Storage: true, BigQuery: true, Recap: true, Notion: true}

// App holds the wired collaborators. Remote ones are nil when disabled.
type App struct {
	Config  *config.Config
	Log     zerolog.Logger
	Refdata *refdata.Data
	Annual  annual.Deps

	Storage  *gcs.GCSStorageService
	Repo     *infra.BigQueryRepository
	Recapper *recap.Generator
	Notion   *notionsync.NotionClient
}

// New loads reference data and connects the requested collaborators.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.NewWithLevel(cfg.LogLevel)

	data, err := refdata.Load(cfg.RefdataOverrides())
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}

	a := &App{
		Config:  cfg,
		Log:     log,
		Refdata: data,
		Annual: annual.Deps{
			Catalog: tariff.NewCatalog(data.Tariffs),
			Network: transit.NewNetwork(data),
			TopN:    cfg.TopN,
		},
	}

	if opts.Storage && cfg.GCSEnabled() {
		if a.Storage, err = gcs.NewGCSStorageService(ctx); err != nil {
			return nil, err
		}
	}
	if opts.BigQuery && cfg.BigQueryEnabled() {
		if a.Repo, err = infra.NewBigQueryRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset); err != nil {
			a.Close()
			return nil, err
		}
	}
	if opts.Recap && cfg.Recap {
		if a.Recapper, err = recap.NewGenerator(ctx, cfg.GeminiModel); err != nil {
			a.Close()
			return nil, err
		}
	}
	if opts.Notion && cfg.NotionEnabled() {
		a.Notion = notionsync.NewNotionClient(cfg.NotionToken)
	}

	log.Debug().
		Int("tariffs", len(data.Tariffs.Tariffs)).
		Int("stations", len(data.Metro.Stations)).
		Bool("storage", a.Storage != nil).
		Bool("bigquery", a.Repo != nil).
		Bool("recap", a.Recapper != nil).
		Bool("notion", a.Notion != nil).
		Msg("application wired")
	return a, nil
}

// PipelineDeps returns the pipeline collaborators. Nil remotes stay nil
// interfaces so the pipeline leaves their steps out.
func (a *App) PipelineDeps() pipeline.Deps {
	d := pipeline.Deps{
		Annual:       a.Annual,
		ExportBucket: a.Config.GCSBucket,
		ExportPrefix: a.Config.ExportPrefix,
	}
	if a.Storage != nil {
		d.Storage = a.Storage
	}
	if a.Repo != nil {
		d.Repo = a.Repo
	}
	if a.Recapper != nil {
		d.Recapper = a.Recapper
	}
	return d
}

// Uploader returns the Cloud Storage uploader, or nil.
func (a *App) Uploader() gcs.Uploader {
	if a.Storage == nil {
		return nil
	}
	return a.Storage
}

// Close releases the remote clients.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("Failed to close storage client")
		}
	}
	if a.Repo != nil {
		if err := a.Repo.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("Failed to close BigQuery client")
		}
	}
}
