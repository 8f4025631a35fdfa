package adapter

import (
	"context"

	"qwen-tts-batch/internal/domain/model"
)

// ProgressNotifier broadcasts job snapshots after each recorded segment.
// Delivery is best effort and unordered.
type ProgressNotifier interface {
	Publish(ctx context.Context, job *model.BatchJob) error
}
