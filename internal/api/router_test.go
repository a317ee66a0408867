package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/barik-insights/internal/api"
	"github.com/dvloznov/barik-insights/internal/api/middleware"
	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/jobs"
	"github.com/dvloznov/barik-insights/internal/jobs/inmemory"
	"github.com/dvloznov/barik-insights/internal/metrics"
	"github.com/dvloznov/barik-insights/internal/pipeline"
)

// MockPublisher records published jobs.
type MockPublisher struct {
	Err       error
	Published []*jobs.ProcessStatementJob
}

func (m *MockPublisher) PublishProcessStatement(ctx context.Context, job *jobs.ProcessStatementJob) error {
	if m.Err != nil {
		return m.Err
	}
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	m.Published = append(m.Published, job)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// MockUploader records uploaded objects.
type MockUploader struct {
	Bucket, Object, ContentType string
	Data                        []byte
}

func (m *MockUploader) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType, contentEncoding string) error {
	m.Bucket, m.Object, m.ContentType, m.Data = bucketName, objectName, contentType, data
	return nil
}

type fixture struct {
	publisher *MockPublisher
	jobs      *inmemory.Store
	results   *inmemory.ResultStore
	metrics   *metrics.Metrics
	deps      api.Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		publisher: &MockPublisher{},
		jobs:      inmemory.NewStore(),
		results:   inmemory.NewResultStore(0),
		metrics:   metrics.New(),
	}
	f.deps = api.Deps{
		Publisher: f.publisher,
		Jobs:      f.jobs,
		Results:   f.results,
		UploadDir: t.TempDir(),
		MaxBytes:  1 << 10,
		Metrics:   f.metrics,
		Log:       zerolog.Nop(),
	}

	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, f.results.SaveResult(context.Background(), &pipeline.PipelineState{
		RunID: "run-1",
		Journeys: []domain.JourneyBlock{
			{ID: "a", Kind: domain.JourneyTrip, Start: domain.TransactionRecord{Timestamp: start}},
			{ID: "b", Kind: domain.JourneyTrip, Start: domain.TransactionRecord{Timestamp: start.AddDate(-1, 0, 0)}},
		},
		Summaries: []domain.AnnualSummary{{Year: 2024, Totals: domain.JourneyStats{Rides: 1}}, {Year: 2023}},
		Recaps:    map[int]string{2024: "Un buen año."},
	}))
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	api.NewRouter(f.deps).ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/statements", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	rec := newFixture(t).do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUploadToLocalDisk(t *testing.T) {
	f := newFixture(t)
	rec := f.do(uploadRequest(t, "C:\\Users\\ane\\barik.pdf", []byte("%PDF-1.4 statement")))

	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "job-1", body["job_id"])
	assert.Equal(t, "barik.pdf", body["filename"])

	require.Len(t, f.publisher.Published, 1)
	job := f.publisher.Published[0]
	assert.Equal(t, "barik.pdf", job.SourceFilename)
	data, err := os.ReadFile(job.Source)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 statement", string(data))
}

func TestUploadToCloudStorage(t *testing.T) {
	f := newFixture(t)
	up := &MockUploader{}
	f.deps.Storage = up
	f.deps.Bucket = "uploads-bucket"

	rec := f.do(uploadRequest(t, "barik.pdf", []byte("%PDF")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	assert.Equal(t, "uploads-bucket", up.Bucket)
	assert.True(t, strings.HasPrefix(up.Object, "uploads/"))
	assert.True(t, strings.HasSuffix(up.Object, "-barik.pdf"))
	assert.Equal(t, "application/pdf", up.ContentType)
	assert.Equal(t, "gs://uploads-bucket/"+up.Object, f.publisher.Published[0].Source)
}

func TestUploadErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/statements", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(uploadRequest(t, "big.pdf", bytes.Repeat([]byte("x"), 4<<10)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = f.do(uploadRequest(t, "empty.pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.publisher.Err = errors.New("queue is closed")
	rec = f.do(uploadRequest(t, "barik.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatementQueries(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/statements/run-1/years", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{float64(2024), float64(2023)}, decode(t, rec)["years"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/statements/run-1/summary/2024", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Un buen año.", body["recap"])
	assert.Equal(t, float64(2024), body["summary"].(map[string]interface{})["year"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/statements/run-1/summary/2019", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/statements/run-1/summary/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/statements/missing/years", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/statements/run-1/journeys?year=2024", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/statements/run-1/journeys", nil))
	assert.Equal(t, float64(2), decode(t, rec)["count"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/statements/run-1/insights", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])
}

func TestJobs(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.jobs.SaveJob(context.Background(), &jobs.ProcessStatementJob{
		JobID: "j1", Status: jobs.JobStatusCompleted, RunID: "run-1",
	}))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/jobs/j1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", decode(t, rec)["run_id"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/jobs?status=completed&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])
}

func TestMetroPath(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/metro/path?from=ABA&to=San+Inazio", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []interface{}{"ABA", "MOY", "IND", "SMA", "DEU", "SAR", "SIN"}, body["path"])
	assert.Equal(t, float64(7), body["stops"])
	assert.NotEmpty(t, body["polyline"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/metro/path?from=ABA", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/metro/path?from=ABA&to=Atlantis", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/metro/lines/l1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/metro/lines/L9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t)
	rl := middleware.NewRateLimiter(1, 1, f.metrics)
	t.Cleanup(rl.Stop)
	f.deps.RateLimiter = rl
	router := api.NewRouter(f.deps)

	call := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
		return rec
	}
	assert.Equal(t, http.StatusOK, call().Code)
	limited := call()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RateLimited))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	router := api.NewRouter(f.deps)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/statements/run-1/years", nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		f.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/statements/{runID}/years", "200")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(out), "barik_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/statements", nil)
	req.Header.Set("Origin", "https://barik.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := newFixture(t).do(req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	rec := newFixture(t).do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decode(t, rec)["error"])
}
