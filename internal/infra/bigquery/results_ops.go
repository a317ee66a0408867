package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// ErrNotFound is returned when a queried row does not exist.
var ErrNotFound = errors.New("not found")

func put[T any](ctx context.Context, client *bigquery.Client, ds Dataset, table string, rows []T, op string) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := client.DatasetInProject(ds.Project, ds.Name).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("%s: inserting rows: %w", op, err)
	}
	return nil
}

// InsertRecordsWithClient streams record rows.
func InsertRecordsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, rows []*RecordRow) error {
	return put(ctx, client, ds, recordsTable, rows, "InsertRecords")
}

// InsertJourneysWithClient streams journey rows.
func InsertJourneysWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, rows []*JourneyRow) error {
	return put(ctx, client, ds, journeysTable, rows, "InsertJourneys")
}

// InsertSummariesWithClient streams annual summary rows.
func InsertSummariesWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, rows []*SummaryRow) error {
	return put(ctx, client, ds, summariesTable, rows, "InsertSummaries")
}

// ListSummaryYearsWithClient lists the years summarized by a run, most recent first.
func ListSummaryYearsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, runID string) ([]int, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT DISTINCT year
		FROM %s
		WHERE run_id = @run_id
		ORDER BY year DESC
	`, ds.table(summariesTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "run_id", Value: runID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListSummaryYears: query read: %w", err)
	}

	var years []int
	for {
		var row struct {
			Year int64 `bigquery:"year"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListSummaryYears: iter next: %w", err)
		}
		years = append(years, int(row.Year))
	}
	return years, nil
}

// GetSummaryWithClient loads the latest summary row of a run and year.
func GetSummaryWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, runID string, year int) (*SummaryRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s
		WHERE run_id = @run_id AND year = @year
		ORDER BY created_ts DESC
		LIMIT 1
	`, ds.table(summariesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "year", Value: year},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetSummary: query read: %w", err)
	}
	var row SummaryRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetSummary: run %s year %d: %w", runID, year, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetSummary: iter next: %w", err)
	}
	return &row, nil
}
