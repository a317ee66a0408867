package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/barik-insights/internal/api/middleware"
	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/gcs"
	"github.com/dvloznov/barik-insights/internal/jobs"
	"github.com/dvloznov/barik-insights/internal/pipeline"
)

const uploadField = "file"

// StatementsHandler handles statement uploads and result queries.
type StatementsHandler struct {
	publisher jobs.Publisher
	results   jobs.ResultStore
	storage   gcs.Uploader
	bucket    string
	uploadDir string
	maxBytes  int64
	log       zerolog.Logger
}

// StatementsConfig configures a StatementsHandler. Uploads go to Cloud Storage
// when Storage and Bucket are set, otherwise to UploadDir on local disk.
type StatementsConfig struct {
	Publisher jobs.Publisher
	Results   jobs.ResultStore
	Storage   gcs.Uploader
	Bucket    string
	UploadDir string
	MaxBytes  int64
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(cfg StatementsConfig, log zerolog.Logger) *StatementsHandler {
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	return &StatementsHandler{
		publisher: cfg.Publisher,
		results:   cfg.Results,
		storage:   cfg.Storage,
		bucket:    cfg.Bucket,
		uploadDir: cfg.UploadDir,
		maxBytes:  cfg.MaxBytes,
		log:       log,
	}
}

// Upload handles POST /api/statements (multipart form, field "file").
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Statement is too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "A statement file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read statement")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Statement is empty")
		return
	}

	filename := cleanFilename(header.Filename)
	source, err := h.store(r, filename, data)
	if err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("Failed to store statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store statement")
		return
	}

	job := &jobs.ProcessStatementJob{
		Source:         source,
		SourceFilename: filename,
	}
	if err := h.publisher.PublishProcessStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue statement job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue statement")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("source", source).Int("bytes", len(data)).Msg("Statement job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":   job.JobID,
		"source":   source,
		"filename": filename,
		"status":   string(job.Status),
	})
}

// store writes the upload and returns the pipeline source for it.
func (h *StatementsHandler) store(r *http.Request, filename string, data []byte) (string, error) {
	if h.storage != nil && h.bucket != "" {
		object := fmt.Sprintf("uploads/%s/%s-%s", time.Now().UTC().Format("2006/01/02"), uuid.NewString(), filename)
		contentType := "application/json"
		if strings.EqualFold(filepath.Ext(filename), ".pdf") {
			contentType = "application/pdf"
		}
		if err := h.storage.UploadBytes(r.Context(), h.bucket, object, data, contentType, ""); err != nil {
			return "", err
		}
		return gcs.URI(h.bucket, object), nil
	}

	f, err := os.CreateTemp(h.uploadDir, "statement-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// Years handles GET /api/statements/{runID}/years
func (h *StatementsHandler) Years(w http.ResponseWriter, r *http.Request) {
	state, ok := h.result(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": state.RunID,
		"years":  state.Years(),
	})
}

// Summary handles GET /api/statements/{runID}/summary/{year}
func (h *StatementsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid year")
		return
	}
	state, ok := h.result(w, r)
	if !ok {
		return
	}

	summary, found := state.Summary(year)
	if !found {
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("No activity in %d", year))
		return
	}

	resp := map[string]interface{}{
		"run_id":  state.RunID,
		"summary": summary,
	}
	if text, ok := state.Recaps[year]; ok {
		resp["recap"] = text
	}
	if uri, ok := state.Exports[fmt.Sprintf("summary-%d", year)]; ok {
		resp["export"] = uri
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Journeys handles GET /api/statements/{runID}/journeys (optional ?year=)
func (h *StatementsHandler) Journeys(w http.ResponseWriter, r *http.Request) {
	var year int
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = y
	}
	state, ok := h.result(w, r)
	if !ok {
		return
	}

	list := []domain.JourneyBlock{}
	for _, j := range state.Journeys {
		if year != 0 && j.Start.Timestamp.Year() != year {
			continue
		}
		list = append(list, j)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"journeys": list,
		"count":    len(list),
	})
}

// Insights handles GET /api/statements/{runID}/insights
func (h *StatementsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	state, ok := h.result(w, r)
	if !ok {
		return
	}
	insights := state.Insights
	if insights == nil {
		insights = domain.FareInsightsMap{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": insights,
		"count":    len(insights),
	})
}

func (h *StatementsHandler) result(w http.ResponseWriter, r *http.Request) (*pipeline.PipelineState, bool) {
	runID := chi.URLParam(r, "runID")
	state, err := h.results.GetResult(r.Context(), runID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Statement not found")
			return nil, false
		}
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to load result")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load statement")
		return nil, false
	}
	return state, true
}

// cleanFilename keeps only the base name of an uploaded file.
func cleanFilename(name string) string {
	if idx := strings.Index(name, "?"); idx > 0 {
		name = name[:idx]
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "statement.pdf"
	}
	return name
}
