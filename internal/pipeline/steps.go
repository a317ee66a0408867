package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/barik-insights/internal/annual"
	"github.com/dvloznov/barik-insights/internal/extractor"
	"github.com/dvloznov/barik-insights/internal/fares"
	"github.com/dvloznov/barik-insights/internal/gcs"
	infra "github.com/dvloznov/barik-insights/internal/infra/bigquery"
	"github.com/dvloznov/barik-insights/internal/journeys"
	"github.com/dvloznov/barik-insights/internal/logger"
	"github.com/dvloznov/barik-insights/internal/pdftext"
	"github.com/dvloznov/barik-insights/internal/tariff"
)

// LoadSourceStep reads the statement bytes from disk or Cloud Storage.
type LoadSourceStep struct {
	Storage  StorageService
	ReadFile func(path string) ([]byte, error)
}

func (s *LoadSourceStep) Name() string { return "load-source" }

func (s *LoadSourceStep) Execute(ctx context.Context, state *PipelineState) error {
	if gcs.IsURI(state.Source) {
		if s.Storage == nil {
			return fmt.Errorf("LoadSource: %s needs cloud storage", state.Source)
		}
		data, err := s.Storage.FetchFromGCS(ctx, state.Source)
		if err != nil {
			return err
		}
		state.Data = data
		return nil
	}
	data, err := s.ReadFile(state.Source)
	if err != nil {
		return fmt.Errorf("LoadSource: %w", err)
	}
	state.Data = data
	return nil
}

// StartRunStep records the run with status=RUNNING.
type StartRunStep struct {
	Repo ResultRepository
}

func (s *StartRunStep) Name() string { return "start-run" }

func (s *StartRunStep) Execute(ctx context.Context, state *PipelineState) error {
	err := s.Repo.StartRun(ctx, &infra.RunRow{
		RunID:          state.RunID,
		Source:         state.Source,
		SourceFilename: state.SourceFilename,
		StartedTS:      state.StartedAt,
		Status:         infra.RunStatusRunning,
	})
	if err != nil {
		return err
	}
	state.RunStarted = true
	return nil
}

// ExtractFragmentsStep turns the statement bytes into pages of fragments.
type ExtractFragmentsStep struct{}

func (s *ExtractFragmentsStep) Name() string { return "extract-fragments" }

func (s *ExtractFragmentsStep) Execute(ctx context.Context, state *PipelineState) error {
	pages, err := pdftext.Load(state.Data)
	if err != nil {
		if errors.Is(err, pdftext.ErrNoPages) {
			return fmt.Errorf("ExtractFragments: %w", ErrNoRecords)
		}
		return err
	}
	state.Pages = pages
	state.Data = nil
	return nil
}

// ExtractRecordsStep reconstructs the statement table.
type ExtractRecordsStep struct {
	Extractor *extractor.Extractor
}

func (s *ExtractRecordsStep) Name() string { return "extract-records" }

func (s *ExtractRecordsStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	records, stats := s.Extractor.Extract(state.Pages)
	state.Stats = stats
	log.Debug().
		Int("pages", stats.Pages).
		Int("pages_without_header", stats.PagesWithoutHeader).
		Int("dropped_rows", stats.DroppedRows).
		Int("skipped_lines", stats.SkippedLines).
		Int("duplicates", stats.Duplicates).
		Msg("statement extracted")

	report, err := ValidateRecords(records)
	state.Report = report
	if err != nil {
		return err
	}
	if len(report.UnknownKinds) > 0 {
		log.Warn().Strs("labels", report.UnknownKinds).Msg("unclassified transaction labels")
	}
	state.Records = annual.Meaningful(records)
	log.Info().Int("records", len(state.Records)).Int("undated", report.Undated).Msg("records ready")
	return nil
}

// ComputeInsightsStep classifies every record against the tariff catalog.
type ComputeInsightsStep struct {
	Catalog *tariff.Catalog
}

func (s *ComputeInsightsStep) Name() string { return "compute-insights" }

func (s *ComputeInsightsStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Insights = fares.NewEngine(s.Catalog).Compute(state.Records)
	return nil
}

// BuildJourneysStep groups the records into journeys.
type BuildJourneysStep struct{}

func (s *BuildJourneysStep) Name() string { return "build-journeys" }

func (s *BuildJourneysStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Journeys = journeys.Build(state.Records)
	log := logger.FromContext(ctx)
	log.Info().Int("journeys", len(state.Journeys)).Msg("journeys built")
	return nil
}

// BuildSummariesStep builds one annual summary per year present.
type BuildSummariesStep struct {
	Deps annual.Deps
}

func (s *BuildSummariesStep) Name() string { return "build-summaries" }

func (s *BuildSummariesStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Summaries = annual.BuildAll(state.Records, s.Deps)
	log := logger.FromContext(ctx)
	log.Info().Ints("years", state.Years()).Msg("summaries built")
	return nil
}

// PersistStep writes records, journeys and summaries, then closes the run.
type PersistStep struct {
	Repo ResultRepository
	Now  func() time.Time
}

func (s *PersistStep) Name() string { return "persist" }

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	now := s.Now()
	if err := s.Repo.InsertRecords(ctx, infra.NewRecordRows(state.RunID, state.Records, state.Insights, now)); err != nil {
		return err
	}
	if err := s.Repo.InsertJourneys(ctx, infra.NewJourneyRows(state.RunID, state.Journeys, state.Insights, now)); err != nil {
		return err
	}

	rows := make([]*infra.SummaryRow, 0, len(state.Summaries))
	for _, sum := range state.Summaries {
		row, err := infra.NewSummaryRow(state.RunID, sum, now)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if err := s.Repo.InsertSummaries(ctx, rows); err != nil {
		return err
	}

	return s.Repo.MarkRunSucceeded(ctx, state.RunID, infra.RunCounts{
		Pages:       state.Stats.Pages,
		Records:     len(state.Records),
		DroppedRows: state.Stats.DroppedRows,
		Duplicates:  state.Stats.Duplicates,
	})
}

// ExportStep uploads gzipped JSON exports of the results.
type ExportStep struct {
	Storage StorageService
	Bucket  string
	Prefix  string
}

func (s *ExportStep) Name() string { return "export" }

func (s *ExportStep) Execute(ctx context.Context, state *PipelineState) error {
	exports := map[string]any{
		"records":  state.Records,
		"journeys": state.Journeys,
	}
	for _, sum := range state.Summaries {
		exports[fmt.Sprintf("summary-%d", sum.Year)] = sum
	}

	for name, v := range exports {
		object := gcs.ExportObjectName(s.Prefix, state.RunID, name)
		uri, err := gcs.ExportJSON(ctx, s.Storage, s.Bucket, object, v)
		if err != nil {
			return err
		}
		state.Exports[name] = uri
	}
	log := logger.FromContext(ctx)
	log.Info().Int("exports", len(state.Exports)).Msg("results exported")
	return nil
}

// RecapStep asks the recapper for a narrative of every summarized year.
// A failed recap is logged and skipped.
type RecapStep struct {
	Recapper Recapper
}

func (s *RecapStep) Name() string { return "recap" }

func (s *RecapStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	for _, sum := range state.Summaries {
		if sum.Totals.IsZero() {
			continue
		}
		text, err := s.Recapper.Recap(ctx, sum)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Int("year", sum.Year).Msg("recap failed")
			continue
		}
		state.Recaps[sum.Year] = text
	}
	return nil
}
