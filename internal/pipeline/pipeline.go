// Package pipeline turns a statement (a PDF or a fragments file) into records,
// fare insights, journeys and annual summaries, and optionally persists,
// exports and narrates the results.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/barik-insights/internal/annual"
	"github.com/dvloznov/barik-insights/internal/domain"
	"github.com/dvloznov/barik-insights/internal/extractor"
	"github.com/dvloznov/barik-insights/internal/gcs"
	"github.com/dvloznov/barik-insights/internal/logger"
)

// DefaultExportPrefix is the object prefix of Cloud Storage exports.
const DefaultExportPrefix = "exports"

// PipelineStep represents a single step of statement processing.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID          string    `json:"runId"`
	Source         string    `json:"source"`
	SourceFilename string    `json:"sourceFilename"`
	StartedAt      time.Time `json:"startedAt"`
	RunStarted     bool      `json:"-"`

	Data    []byte                     `json:"-"`
	Pages   []extractor.Page           `json:"-"`
	Records []domain.TransactionRecord `json:"records"`
	Stats   extractor.ExtractStats     `json:"stats"`
	Report  RecordReport               `json:"report"`

	Insights  domain.FareInsightsMap `json:"insights"`
	Journeys  []domain.JourneyBlock  `json:"journeys"`
	Summaries []domain.AnnualSummary `json:"summaries"`

	Exports map[string]string `json:"exports,omitempty"`
	Recaps  map[int]string    `json:"recaps,omitempty"`
}

// NewState starts the state of a run over source, a local path or a gs:// URI.
func NewState(source string) *PipelineState {
	name := filepath.Base(source)
	if gcs.IsURI(source) {
		name = gcs.ExtractFilenameFromGCSURI(source)
	}
	return &PipelineState{
		RunID:          uuid.NewString(),
		Source:         source,
		SourceFilename: name,
		StartedAt:      time.Now(),
		Exports:        map[string]string{},
		Recaps:         map[int]string{},
	}
}

// Years lists the summarized years, most recent first.
func (s *PipelineState) Years() []int {
	years := make([]int, 0, len(s.Summaries))
	for _, sum := range s.Summaries {
		years = append(years, sum.Year)
	}
	return years
}

// Summary returns the summary of year.
func (s *PipelineState) Summary(year int) (domain.AnnualSummary, bool) {
	for _, sum := range s.Summaries {
		if sum.Year == year {
			return sum, true
		}
	}
	return domain.AnnualSummary{}, false
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps     []PipelineStep
	onFailure func(ctx context.Context, state *PipelineState, err error)
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// OnFailure registers a hook called with the wrapped error of a failed step.
func (p *Pipeline) OnFailure(fn func(ctx context.Context, state *PipelineState, err error)) *Pipeline {
	p.onFailure = fn
	return p
}

// StepNames lists the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx).With().Str("run_id", state.RunID).Logger()
	ctx = logger.WithContext(ctx, log)

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d (%s) cancelled: %w", i+1, step.Name(), err)
		}
		start := time.Now()
		if err := step.Execute(ctx, state); err != nil {
			wrapped := fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
			if p.onFailure != nil {
				p.onFailure(ctx, state, wrapped)
			}
			return wrapped
		}
		log.Debug().
			Str("step", step.Name()).
			Dur("took", time.Since(start)).
			Msg("pipeline step done")
	}
	return nil
}

// Deps are the collaborators of the statement pipeline. Storage, Repo and
// Recapper are optional; the steps that need them are left out when nil.
type Deps struct {
	Storage  StorageService
	Repo     ResultRepository
	Recapper Recapper

	Extractor *extractor.Extractor
	Annual    annual.Deps

	ExportBucket string
	ExportPrefix string

	ReadFile func(path string) ([]byte, error)
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Extractor == nil {
		d.Extractor = extractor.New()
	}
	if d.Annual.Catalog == nil || d.Annual.Network == nil {
		def := annual.DefaultDeps()
		if d.Annual.Catalog == nil {
			d.Annual.Catalog = def.Catalog
		}
		if d.Annual.Network == nil {
			d.Annual.Network = def.Network
		}
	}
	if d.ExportPrefix == "" {
		d.ExportPrefix = DefaultExportPrefix
	}
	if d.ReadFile == nil {
		d.ReadFile = os.ReadFile
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// NewStatementPipeline assembles the processing steps supported by deps.
func NewStatementPipeline(deps Deps) *Pipeline {
	d := deps.withDefaults()

	steps := []PipelineStep{&LoadSourceStep{Storage: d.Storage, ReadFile: d.ReadFile}}
	if d.Repo != nil {
		steps = append(steps, &StartRunStep{Repo: d.Repo})
	}
	steps = append(steps,
		&ExtractFragmentsStep{},
		&ExtractRecordsStep{Extractor: d.Extractor},
		&ComputeInsightsStep{Catalog: d.Annual.Catalog},
		&BuildJourneysStep{},
		&BuildSummariesStep{Deps: d.Annual},
	)
	if d.Repo != nil {
		steps = append(steps, &PersistStep{Repo: d.Repo, Now: d.Now})
	}
	if d.Storage != nil && d.ExportBucket != "" {
		steps = append(steps, &ExportStep{Storage: d.Storage, Bucket: d.ExportBucket, Prefix: d.ExportPrefix})
	}
	if d.Recapper != nil {
		steps = append(steps, &RecapStep{Recapper: d.Recapper})
	}

	p := NewPipeline(steps...)
	if d.Repo != nil {
		repo := d.Repo
		p.OnFailure(func(ctx context.Context, state *PipelineState, err error) {
			if state.RunStarted {
				repo.MarkRunFailed(ctx, state.RunID, err)
			}
		})
	}
	return p
}

// Run processes source with a pipeline built from deps.
func Run(ctx context.Context, source string, deps Deps) (*PipelineState, error) {
	state := NewState(source)
	if err := NewStatementPipeline(deps).Execute(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}
