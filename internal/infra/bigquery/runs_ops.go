package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/barik-insights/internal/logger"
)

const (
	runsTable      = "runs"
	recordsTable   = "records"
	journeysTable  = "journeys"
	summariesTable = "annual_summaries"
)

// Dataset locates the tables of one deployment.
type Dataset struct {
	Project string
	Name    string
}

func (d Dataset) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.Project, d.Name, name)
}

func runQuery(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}

// StartRunWithClient inserts a run row with status=RUNNING.
func StartRunWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, row *RunRow) error {
	q := client.Query(fmt.Sprintf(`
		INSERT %s (
			run_id,
			source,
			source_filename,
			started_ts,
			status
		)
		VALUES (
			@run_id,
			@source,
			@source_filename,
			@started_ts,
			@status
		)
	`, ds.table(runsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: row.RunID},
		{Name: "source", Value: row.Source},
		{Name: "source_filename", Value: row.SourceFilename},
		{Name: "started_ts", Value: row.StartedTS},
		{Name: "status", Value: RunStatusRunning},
	}
	return runQuery(ctx, q, "StartRun")
}

// MarkRunSucceededWithClient sets status=SUCCESS, finished_ts and the counters.
func MarkRunSucceededWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, runID string, counts RunCounts) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    pages = @pages,
		    records = @records,
		    dropped_rows = @dropped_rows,
		    duplicates = @duplicates
		WHERE run_id = @run_id
	`, ds.table(runsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "pages", Value: counts.Pages},
		{Name: "records", Value: counts.Records},
		{Name: "dropped_rows", Value: counts.DroppedRows},
		{Name: "duplicates", Value: counts.Duplicates},
		{Name: "run_id", Value: runID},
	}
	return runQuery(ctx, q, "MarkRunSucceeded")
}

// MarkRunFailedWithClient sets status=FAILED. Failures to record the failure
// are logged, not returned.
func MarkRunFailedWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, runID string, runErr error) {
	log := logger.FromContext(ctx)

	q := client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, ds.table(runsTable)))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: RunStatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: truncateError(runErr)},
		{Name: "run_id", Value: runID},
	}
	if err := runQuery(ctx, q, "MarkRunFailed"); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkRunFailed: could not update run")
	}
}
