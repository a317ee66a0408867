package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/barik-insights/internal/jobs"
	"github.com/dvloznov/barik-insights/internal/pipeline"
)

// ResultStore keeps finished pipeline states in memory, keyed by run ID.
// The oldest run is evicted once capacity is reached.
type ResultStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	states   map[string]*pipeline.PipelineState
}

// NewResultStore creates a store holding at most capacity runs (0 means unbounded).
func NewResultStore(capacity int) *ResultStore {
	return &ResultStore{
		capacity: capacity,
		states:   make(map[string]*pipeline.PipelineState),
	}
}

// SaveResult implements jobs.ResultStore.
func (s *ResultStore) SaveResult(ctx context.Context, state *pipeline.PipelineState) error {
	if state == nil || state.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.states[state.RunID]; !exists {
		s.order = append(s.order, state.RunID)
	}
	s.states[state.RunID] = state

	for s.capacity > 0 && len(s.order) > s.capacity {
		delete(s.states, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

// GetResult implements jobs.ResultStore. The returned state must be treated as read-only.
func (s *ResultStore) GetResult(ctx context.Context, runID string) (*pipeline.PipelineState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.states[runID]
	if !exists {
		return nil, fmt.Errorf("run %s: %w", runID, jobs.ErrNotFound)
	}
	return state, nil
}

var _ jobs.ResultStore = (*ResultStore)(nil)
