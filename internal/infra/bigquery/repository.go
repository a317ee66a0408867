// Package bigquery persists processing runs, records, journeys and annual
// summaries to BigQuery.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// ResultRepository provides the database operations of the statement pipeline.
type ResultRepository interface {
	// StartRun inserts a run with status=RUNNING.
	StartRun(ctx context.Context, row *RunRow) error

	// MarkRunFailed sets status=FAILED, finished_ts and error_message for a run.
	MarkRunFailed(ctx context.Context, runID string, runErr error)

	// MarkRunSucceeded sets status=SUCCESS, finished_ts and the extraction counters.
	MarkRunSucceeded(ctx context.Context, runID string, counts RunCounts) error

	InsertRecords(ctx context.Context, rows []*RecordRow) error
	InsertJourneys(ctx context.Context, rows []*JourneyRow) error
	InsertSummaries(ctx context.Context, rows []*SummaryRow) error
}

// SummaryReader reads stored annual summaries.
type SummaryReader interface {
	ListSummaryYears(ctx context.Context, runID string) ([]int, error)
	GetSummary(ctx context.Context, runID string, year int) (*SummaryRow, error)
}

// BigQueryRepository implements ResultRepository and SummaryReader with a
// shared client.
type BigQueryRepository struct {
	client *bigquery.Client
	ds     Dataset
}

// NewBigQueryRepository creates the client for the project.
func NewBigQueryRepository(ctx context.Context, projectID, datasetID string) (*BigQueryRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRepository: creating client: %w", err)
	}
	return &BigQueryRepository{
		client: client,
		ds:     Dataset{Project: projectID, Name: datasetID},
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *BigQueryRepository) StartRun(ctx context.Context, row *RunRow) error {
	return StartRunWithClient(ctx, r.client, r.ds, row)
}

func (r *BigQueryRepository) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	MarkRunFailedWithClient(ctx, r.client, r.ds, runID, runErr)
}

func (r *BigQueryRepository) MarkRunSucceeded(ctx context.Context, runID string, counts RunCounts) error {
	return MarkRunSucceededWithClient(ctx, r.client, r.ds, runID, counts)
}

func (r *BigQueryRepository) InsertRecords(ctx context.Context, rows []*RecordRow) error {
	return InsertRecordsWithClient(ctx, r.client, r.ds, rows)
}

func (r *BigQueryRepository) InsertJourneys(ctx context.Context, rows []*JourneyRow) error {
	return InsertJourneysWithClient(ctx, r.client, r.ds, rows)
}

func (r *BigQueryRepository) InsertSummaries(ctx context.Context, rows []*SummaryRow) error {
	return InsertSummariesWithClient(ctx, r.client, r.ds, rows)
}

func (r *BigQueryRepository) ListSummaryYears(ctx context.Context, runID string) ([]int, error) {
	return ListSummaryYearsWithClient(ctx, r.client, r.ds, runID)
}

func (r *BigQueryRepository) GetSummary(ctx context.Context, runID string, year int) (*SummaryRow, error) {
	return GetSummaryWithClient(ctx, r.client, r.ds, runID, year)
}
