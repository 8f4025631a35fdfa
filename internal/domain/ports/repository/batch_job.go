package repository

import (
	"context"

	"qwen-tts-batch/internal/domain/model"
)

// BatchJobRepository owns every BatchJob record. Implementations serialize
// concurrent updates and only ever return snapshots.
type BatchJobRepository interface {
	// Create inserts a pending job with zero counters and returns its id.
	Create(ctx context.Context, totalSegments int, voice model.VoiceOptions) (string, error)

	// Get returns a snapshot or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*model.BatchJob, error)

	// RecordResult appends the result, bumps the matching counter and
	// recomputes the status in one atomic step, returning the updated snapshot.
	RecordResult(ctx context.Context, id string, result model.SegmentResult) (*model.BatchJob, error)
}
