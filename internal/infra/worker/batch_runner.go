package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"
	"qwen-tts-batch/internal/domain/ports/repository"
	"qwen-tts-batch/internal/infra/logging"
	"qwen-tts-batch/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// DefaultConcurrency is the per-job worker count when none is given.
const DefaultConcurrency = 3

// BatchRunner turns a segmented job into one unit of work per segment and
// feeds them through a per-job Pool. Outcomes go to the job repository only.
type BatchRunner struct {
	ctx            context.Context
	jobsRepo       repository.BatchJobRepository
	artifacts      repository.ArtifactRepository
	tts            adapter.TTSAdapter
	notifier       adapter.ProgressNotifier
	segmentTimeout time.Duration
	log            *zerolog.Logger

	wg sync.WaitGroup
}

// NewBatchRunner wires the runner. Cancelling ctx abandons every in-flight
// unit; notifier may be nil.
func NewBatchRunner(
	ctx context.Context,
	jobsRepo repository.BatchJobRepository,
	artifacts repository.ArtifactRepository,
	tts adapter.TTSAdapter,
	notifier adapter.ProgressNotifier,
	segmentTimeout time.Duration,
	log *zerolog.Logger,
) *BatchRunner {
	if log == nil {
		l := zerolog.Nop()
		log = &l
	}
	return &BatchRunner{
		ctx:            ctx,
		jobsRepo:       jobsRepo,
		artifacts:      artifacts,
		tts:            tts,
		notifier:       notifier,
		segmentTimeout: segmentTimeout,
		log:            log,
	}
}

// RunJob schedules exactly len(segments) units and returns without waiting
// for any of them. At most concurrencyLimit units run at the same time.
func (r *BatchRunner) RunJob(jobID string, segments []model.Segment, voice model.VoiceOptions, concurrencyLimit int) {
	if len(segments) == 0 {
		return
	}
	if concurrencyLimit <= 0 {
		concurrencyLimit = DefaultConcurrency
	}
	if concurrencyLimit > len(segments) {
		concurrencyLimit = len(segments)
	}

	// The queue holds every unit up front, so Submit never blocks here.
	pool := NewPool(concurrencyLimit, len(segments), r.log)
	pool.Start(r.ctx)

	for _, seg := range segments {
		seg := seg
		err := pool.Submit(r.ctx, func(ctx context.Context) error {
			r.processSegment(ctx, jobID, seg, voice)
			return nil
		})
		if err != nil {
			r.log.Warn().Err(err).Str("job_id", jobID).Int("segment", seg.Index).Msg("segment not scheduled")
		}
	}
	pool.Close()

	r.log.Info().
		Str("job_id", jobID).
		Int("segments", len(segments)).
		Int("workers", pool.Size()).
		Msg("batch job scheduled")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		pool.Wait()
	}()
}

// Wait blocks until every scheduled job has drained its pool.
func (r *BatchRunner) Wait() { r.wg.Wait() }

func (r *BatchRunner) processSegment(ctx context.Context, jobID string, seg model.Segment, voice model.VoiceOptions) {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, r.log)

	done := metrics.SegmentStarted()
	defer done()

	start := time.Now()
	ref, err := r.synthesizeAndStore(ctx, seg, voice)
	if ctx.Err() != nil {
		// Shutting down: in-flight units are abandoned, not recorded.
		log.Debug().Int("segment", seg.Index).Msg("segment abandoned on shutdown")
		return
	}

	result := model.NewSuccessResult(seg, ref, voice)
	if err != nil {
		result = model.NewFailureResult(seg, r.failureMessage(err))
		log.Warn().Err(err).Int("segment", seg.Index).Msg("segment failed")
	}

	snap, recErr := r.jobsRepo.RecordResult(ctx, jobID, result)
	if recErr != nil {
		log.Error().Err(recErr).Int("segment", seg.Index).Msg("could not record segment result")
		return
	}
	metrics.IncSegment(err == nil)

	log.Debug().
		Int("segment", seg.Index).
		Bool("success", err == nil).
		Float64("progress", snap.Progress()).
		Dur("duration", time.Since(start)).
		Msg("segment finished")

	if snap.Status.IsTerminal() {
		metrics.IncJobFinished(string(snap.Status))
		log.Info().
			Str("status", string(snap.Status)).
			Int("completed", snap.CompletedSegments).
			Int("failed", snap.FailedSegments).
			Msg("batch job finished")
	}

	if r.notifier != nil {
		if err := r.notifier.Publish(ctx, snap); err != nil {
			log.Warn().Err(err).Msg("progress notification failed")
		}
	}
}

// synthesizeAndStore is the unit of work proper; its own timeout bounds both
// the provider call and the artifact write.
func (r *BatchRunner) synthesizeAndStore(ctx context.Context, seg model.Segment, voice model.VoiceOptions) (string, error) {
	if r.segmentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.segmentTimeout)
		defer cancel()
	}

	audio, err := r.tts.Synthesize(ctx, seg.Text, voice)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	if audio == nil || len(audio.Data) == 0 {
		return "", errors.New("synthesize: provider returned no audio")
	}

	ref, err := r.artifacts.Save(ctx, audio, voice)
	if err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	return ref, nil
}

func (r *BatchRunner) failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("segment timed out after %s", r.segmentTimeout)
	}
	return err.Error()
}
