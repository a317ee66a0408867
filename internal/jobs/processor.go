package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/barik-insights/internal/logger"
	"github.com/dvloznov/barik-insights/internal/metrics"
	"github.com/dvloznov/barik-insights/internal/pipeline"
)

// NewStatementHandler returns a JobHandler that runs the statement pipeline
// and stores the result. Metrics may be nil.
func NewStatementHandler(deps pipeline.Deps, results ResultStore, m *metrics.Metrics) JobHandler {
	return func(ctx context.Context, job Job) error {
		stmtJob, ok := job.(*ProcessStatementJob)
		if !ok {
			return NonRetryable(fmt.Errorf("unexpected job type: %T", job))
		}

		log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
			"job_id": stmtJob.JobID,
			"source": stmtJob.Source,
		})
		ctx = logger.WithContext(ctx, log)
		log.Info().Int("attempt", stmtJob.RetryCount+1).Msg("Processing statement job")

		start := time.Now()
		state, err := pipeline.Run(ctx, stmtJob.Source, deps)
		if err != nil {
			m.ObserveRun(err, 0, 0, time.Since(start))
			log.Error().Err(err).Msg("Pipeline execution failed")
			if errors.Is(err, pipeline.ErrNoRecords) {
				return NonRetryable(err)
			}
			return err
		}
		m.ObserveRun(nil, len(state.Records), len(state.Journeys), time.Since(start))

		if stmtJob.SourceFilename != "" {
			state.SourceFilename = stmtJob.SourceFilename
		}
		if err := results.SaveResult(ctx, state); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		stmtJob.RunID = state.RunID
		stmtJob.Years = state.Years()

		log.Info().Str("run_id", state.RunID).Ints("years", stmtJob.Years).Msg("Pipeline execution completed successfully")
		return nil
	}
}
