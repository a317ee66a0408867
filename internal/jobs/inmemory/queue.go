package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/barik-insights/internal/jobs"
	"github.com/dvloznov/barik-insights/internal/logger"
	"github.com/dvloznov/barik-insights/internal/metrics"
)

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// Suitable for single-instance deployments and testing.
type Queue struct {
	jobChan     chan *jobs.ProcessStatementJob
	closeChan   chan struct{}
	wg          sync.WaitGroup
	mu          sync.RWMutex
	store       jobs.JobStore
	closed      bool
	workerCount int
	maxRetries  int
	backoff     time.Duration
	metrics     *metrics.Metrics
}

// Option configures a Queue.
type Option func(*Queue)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workerCount = n
		}
	}
}

// WithMaxRetries sets the retry budget given to jobs that have none.
func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		if n >= 0 {
			q.maxRetries = n
		}
	}
}

// WithBackoff sets the base retry delay; attempt n waits n*d.
func WithBackoff(d time.Duration) Option {
	return func(q *Queue) { q.backoff = d }
}

// WithMetrics reports queue depth and retries.
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before PublishProcessStatement blocks.
func NewQueue(bufferSize int, store jobs.JobStore, opts ...Option) *Queue {
	q := &Queue{
		jobChan:     make(chan *jobs.ProcessStatementJob, bufferSize),
		closeChan:   make(chan struct{}),
		store:       store,
		workerCount: 2,
		maxRetries:  jobs.DefaultMaxRetries,
		backoff:     time.Second,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PublishProcessStatement implements the Publisher interface.
func (q *Queue) PublishProcessStatement(ctx context.Context, job *jobs.ProcessStatementJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.maxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		if q.metrics != nil {
			q.metrics.JobsQueued.Inc()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements the Consumer interface.
// The handler is called concurrently, up to the configured number of workers.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			if q.metrics != nil {
				q.metrics.JobsQueued.Dec()
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job with retry logic.
func (q *Queue) processJob(ctx context.Context, job *jobs.ProcessStatementJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	retry := false
	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	case !jobs.IsNonRetryable(err) && job.RetryCount < job.MaxRetries && ctx.Err() == nil:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		retry = true
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
	if retry {
		q.scheduleRetry(ctx, *job)
	}
}

// scheduleRetry re-enqueues a copy of job after a linear backoff.
func (q *Queue) scheduleRetry(ctx context.Context, job jobs.ProcessStatementJob) {
	if q.metrics != nil {
		q.metrics.JobsRetried.Inc()
	}
	log := logger.FromContext(ctx)

	backoff := time.Duration(job.RetryCount) * q.backoff
	time.AfterFunc(backoff, func() {
		job.Status = jobs.JobStatusPending
		job.StartedAt = nil
		job.CompletedAt = nil
		if err := q.PublishProcessStatement(ctx, &job); err != nil {
			log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to re-enqueue job")
			if q.store != nil {
				_ = q.store.UpdateJobStatus(context.Background(), job.JobID, jobs.JobStatusFailed, err.Error())
			}
		}
	})
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
