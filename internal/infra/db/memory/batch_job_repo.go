package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ repository.BatchJobRepository = (*BatchJobRepo)(nil)

type jobRecord struct {
	job  *model.BatchJob
	seen map[int]struct{} // segment indexes already recorded
}

// BatchJobRepo keeps every job for the lifetime of the process. A single
// mutex guards the map and the records; no I/O happens while it is held.
type BatchJobRepo struct {
	mu   sync.RWMutex
	jobs map[string]*jobRecord
	now  func() time.Time
	log  *zerolog.Logger
}

func NewBatchJobRepo(logger *zerolog.Logger) *BatchJobRepo {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &BatchJobRepo{
		jobs: make(map[string]*jobRecord),
		now:  time.Now,
		log:  logger,
	}
}

func (r *BatchJobRepo) Create(ctx context.Context, totalSegments int, voice model.VoiceOptions) (string, error) {
	if totalSegments <= 0 {
		return "", fmt.Errorf("%w: total segments must be positive", domain.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	for _, exists := r.jobs[id]; exists; _, exists = r.jobs[id] {
		id = uuid.NewString()
	}
	r.jobs[id] = &jobRecord{
		job:  model.NewBatchJob(id, totalSegments, voice, r.now()),
		seen: make(map[int]struct{}, totalSegments),
	}
	return id, nil
}

func (r *BatchJobRepo) Get(ctx context.Context, id string) (*model.BatchJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.job.Snapshot(), nil
}

func (r *BatchJobRepo) RecordResult(ctx context.Context, id string, result model.SegmentResult) (*model.BatchJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.jobs[id]
	if !ok {
		r.log.Error().Str("job_id", id).Int("segment", result.Index).Msg("result recorded for unknown job")
		return nil, fmt.Errorf("record result for job %s: %w", id, domain.ErrNotFound)
	}
	job := rec.job
	if result.Index < 0 || result.Index >= job.TotalSegments {
		r.log.Error().Str("job_id", id).Int("segment", result.Index).Int("total", job.TotalSegments).Msg("segment index out of range")
		return nil, fmt.Errorf("record result %d for job %s: %w", result.Index, id, domain.ErrInvalidArgument)
	}
	if _, dup := rec.seen[result.Index]; dup || job.Status.IsTerminal() {
		r.log.Error().
			Str("job_id", id).
			Int("segment", result.Index).
			Str("status", string(job.Status)).
			Msg("inconsistent segment result ignored")
		return nil, fmt.Errorf("record result %d for job %s: %w", result.Index, id, domain.ErrDuplicateResult)
	}

	rec.seen[result.Index] = struct{}{}
	job.Apply(result, r.now())
	return job.Snapshot(), nil
}
