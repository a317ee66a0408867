package pipeline

import (
	"context"

	"github.com/dvloznov/barik-insights/internal/domain"
	infra "github.com/dvloznov/barik-insights/internal/infra/bigquery"
)

// StorageService is the slice of Cloud Storage the pipeline needs.
type StorageService interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType, contentEncoding string) error
}

// ResultRepository persists runs and their results.
type ResultRepository = infra.ResultRepository

// Recapper writes a narrative recap of an annual summary.
type Recapper interface {
	Recap(ctx context.Context, summary domain.AnnualSummary) (string, error)
}
