package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/gzip"
)

const (
	jsonContentType = "application/json"
	gzipEncoding    = "gzip"
)

// GzipJSON encodes v as indented JSON and gzips it.
func GzipJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("GzipJSON: writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("GzipJSON: encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("GzipJSON: close: %w", err)
	}
	return buf.Bytes(), nil
}

// GunzipJSON decodes a GzipJSON payload into v.
func GunzipJSON(data []byte, v any) error {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("GunzipJSON: reader: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("GunzipJSON: read: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("GunzipJSON: decode: %w", err)
	}
	return nil
}

// ExportObjectName is the object holding the named export of a run.
func ExportObjectName(prefix, runID, name string) string {
	return path.Join(prefix, runID, name+".json.gz")
}

// Uploader writes objects.
type Uploader interface {
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType, contentEncoding string) error
}

// ExportJSON gzips v and uploads it, returning the gs:// URI written.
func ExportJSON(ctx context.Context, svc Uploader, bucket, object string, v any) (string, error) {
	data, err := GzipJSON(v)
	if err != nil {
		return "", err
	}
	if err := svc.UploadBytes(ctx, bucket, object, data, jsonContentType, gzipEncoding); err != nil {
		return "", fmt.Errorf("ExportJSON: %w", err)
	}
	return URI(bucket, object), nil
}
