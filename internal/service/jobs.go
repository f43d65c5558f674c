package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"quizlet/internal/domain"
	"quizlet/internal/dto"
	"quizlet/internal/util"

	"go.uber.org/zap"
)

// DefaultJobRetention is how long finished jobs stay retrievable.
const DefaultJobRetention = 10 * time.Minute

// JobService runs quiz generations in the background so callers can poll or cancel them.
type JobService interface {
	Submit(document []byte, numQuestions int) (*dto.JobResponse, error)
	Get(id string) (*dto.JobResponse, error)
	Wait(ctx context.Context, id string) (*dto.JobResponse, error)
	Cancel(id string) (*dto.JobResponse, error)
}

type job struct {
	id         string
	status     dto.JobStatus
	requested  int
	createdAt  time.Time
	finishedAt time.Time
	result     *dto.QuizResponse
	err        error
	cancel     context.CancelFunc
	done       chan struct{}
}

// JobManager is an in-memory JobService. Jobs live only as long as the process.
type JobManager struct {
	quizzes   QuizService
	retention time.Duration
	logger    *zap.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu     sync.Mutex
	jobs   map[string]*job
	closed bool

	now   func() time.Time
	newID func() string
}

// NewJobManager creates a JobManager backed by quizzes.
func NewJobManager(quizzes QuizService, retention time.Duration, logger *zap.Logger) *JobManager {
	if retention <= 0 {
		retention = DefaultJobRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		quizzes:    quizzes,
		retention:  retention,
		logger:     logger,
		baseCtx:    ctx,
		baseCancel: cancel,
		jobs:       make(map[string]*job),
		now:        time.Now,
		newID:      util.NewULID,
	}
}

// Submit validates the input and starts the generation in its own goroutine.
func (m *JobManager) Submit(document []byte, numQuestions int) (*dto.JobResponse, error) {
	if len(document) == 0 {
		return nil, domain.NewInvalidInputError(domain.MsgMissingDocument)
	}
	if err := (domain.GenerationRequest{DesiredQuestionCount: numQuestions}).Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	j := &job{
		id:        m.newID(),
		status:    dto.JobStatusRunning,
		requested: numQuestions,
		createdAt: m.now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return nil, domain.NewUnavailableError(domain.MsgShuttingDown)
	}
	m.evictExpiredLocked()
	m.jobs[j.id] = j
	snapshot := j.snapshot()
	// Add under mu so it cannot race with Wait in Shutdown.
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(ctx, j, document, numQuestions)

	m.logger.Info("Quiz generation job submitted",
		zap.String("job_id", j.id),
		zap.Int("num_questions", numQuestions))
	return snapshot, nil
}

func (m *JobManager) run(ctx context.Context, j *job, document []byte, numQuestions int) {
	defer m.wg.Done()
	defer close(j.done)
	defer j.cancel()

	resp, err := m.quizzes.GenerateFromDocument(ctx, document, numQuestions)

	m.mu.Lock()
	defer m.mu.Unlock()

	if j.status != dto.JobStatusRunning {
		// canceled while the pipeline was in flight
		return
	}
	j.finishedAt = m.now()
	switch {
	case err == nil:
		j.status = dto.JobStatusSucceeded
		j.result = resp
		m.logger.Info("Quiz generation job succeeded",
			zap.String("job_id", j.id),
			zap.Int("questions", len(resp.Questions)))
	case errors.Is(ctx.Err(), context.Canceled):
		j.status = dto.JobStatusCanceled
		m.logger.Info("Quiz generation job canceled", zap.String("job_id", j.id))
	default:
		j.status = dto.JobStatusFailed
		j.err = err
		m.logger.Warn("Quiz generation job failed", zap.String("job_id", j.id), zap.Error(err))
	}
}

// Get returns the current state of a job.
func (m *JobManager) Get(id string) (*dto.JobResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictExpiredLocked()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.NewJobNotFoundError(id)
	}
	return j.snapshot(), nil
}

// Wait blocks until the job finishes or ctx is done, then returns its state.
func (m *JobManager) Wait(ctx context.Context, id string) (*dto.JobResponse, error) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.NewJobNotFoundError(id)
	}

	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return j.snapshot(), nil
}

// Cancel stops a running job. Cancelling a finished job is a no-op.
func (m *JobManager) Cancel(id string) (*dto.JobResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.NewJobNotFoundError(id)
	}
	if j.status == dto.JobStatusRunning {
		j.status = dto.JobStatusCanceled
		j.finishedAt = m.now()
		j.cancel()
		m.logger.Info("Quiz generation job canceled", zap.String("job_id", j.id))
	}
	return j.snapshot(), nil
}

// Shutdown rejects new submissions, cancels every running job and waits for
// their goroutines to exit.
func (m *JobManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.baseCancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *JobManager) evictExpiredLocked() {
	now := m.now()
	for id, j := range m.jobs {
		if j.status.Done() && now.Sub(j.finishedAt) > m.retention {
			delete(m.jobs, id)
		}
	}
}

func (j *job) snapshot() *dto.JobResponse {
	resp := &dto.JobResponse{
		JobID:     j.id,
		Status:    j.status,
		Requested: j.requested,
		CreatedAt: j.createdAt,
		Quiz:      j.result,
	}
	if j.status.Done() {
		finished := j.finishedAt
		resp.FinishedAt = &finished
	}
	if j.err != nil {
		resp.Error = jobError(j.err)
	}
	return resp
}

func jobError(err error) *dto.JobError {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return &dto.JobError{Code: string(domainErr.Code), Message: domainErr.Message}
	}
	return &dto.JobError{Code: string(domain.CodeInternal), Message: "Internal server error"}
}

// Static assertion to ensure JobManager implements JobService
var _ JobService = (*JobManager)(nil)
