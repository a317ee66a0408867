// Package gcs reads statements from and writes exports to Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// URIScheme prefixes every Cloud Storage URI.
const URIScheme = "gs://"

const uploadTimeout = 2 * time.Minute

// StorageService provides an interface for cloud storage operations.
type StorageService interface {
	// UploadFile uploads a local file to a bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error

	// UploadBytes writes data to a bucket object with the given content headers.
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType, contentEncoding string) error

	// FetchFromGCS downloads file bytes from the given storage URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}

// GCSStorageService is the StorageService backed by a shared storage client.
type GCSStorageService struct {
	client *storage.Client
}

// NewGCSStorageService creates the client using Application Default Credentials.
func NewGCSStorageService(ctx context.Context) (*GCSStorageService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorageService: creating client: %w", err)
	}
	return &GCSStorageService{client: client}, nil
}

// Close releases the storage client.
func (s *GCSStorageService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// UploadFile uploads a local file.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("UploadFile: open %q: %w", filePath, err)
	}
	defer f.Close()

	return s.upload(ctx, bucketName, objectName, f, "application/pdf", "")
}

// UploadBytes writes data to the object.
func (s *GCSStorageService) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType, contentEncoding string) error {
	return s.upload(ctx, bucketName, objectName, bytes.NewReader(data), contentType, contentEncoding)
}

func (s *GCSStorageService) upload(ctx context.Context, bucketName, objectName string, r io.Reader, contentType, contentEncoding string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	w.ContentEncoding = contentEncoding

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload: copy to gs://%s/%s: %w", bucketName, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload: finalize gs://%s/%s: %w", bucketName, objectName, err)
	}
	return nil
}

// FetchFromGCS downloads the object named by a gs:// URI.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := ParseURI(gcsURI)
	if err != nil {
		return nil, err
	}

	rc, err := s.client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}
	return data, nil
}

// IsURI reports whether s looks like a gs:// URI.
func IsURI(s string) bool {
	return strings.HasPrefix(s, URIScheme)
}

// ParseURI splits gs://bucket/object into its parts.
func ParseURI(uri string) (bucket, object string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("ParseURI: invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, URIScheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("ParseURI: invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// URI builds gs://bucket/object.
func URI(bucket, object string) string {
	return URIScheme + bucket + "/" + object
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, URIScheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
