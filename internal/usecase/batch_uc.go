package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/repository"
	"qwen-tts-batch/internal/infra/logging"
	"qwen-tts-batch/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ BatchUseCase = (*batchUC)(nil)

type BatchUseCase interface {
	CreateJob(ctx context.Context, in CreateJobInput) (*CreateJobOutput, error)
	GetJob(ctx context.Context, id string) (*model.BatchJob, error)
	BuildArchive(ctx context.Context, id string) (*Archive, error)
	Voices() []model.Voice
}

// JobRunner schedules the segments of a created job and returns at once.
type JobRunner interface {
	RunJob(jobID string, segments []model.Segment, voice model.VoiceOptions, concurrencyLimit int)
}

type CreateJobInput struct {
	Text        string
	SplitPolicy string
	MaxLength   int
	Voice       string
	Model       string
}

type CreateJobOutput struct {
	JobID         string `json:"job_id"`
	TotalSegments int    `json:"total_segments"`
}

// BatchOptions are the batch.* settings the use case enforces.
type BatchOptions struct {
	Concurrency        int
	MaxSegments        int
	DefaultMaxLength   int
	MaxSegmentLength   int
	DefaultSplitPolicy string
	// Dev logs submitted text unredacted.
	Dev bool
}

type batchUC struct {
	jobs     repository.BatchJobRepository
	runner   JobRunner
	archiver *Archiver
	opts     BatchOptions
	log      *zerolog.Logger
}

func NewBatchUseCase(jobs repository.BatchJobRepository, runner JobRunner, archiver *Archiver, opts BatchOptions, logger *zerolog.Logger) *batchUC {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if opts.MaxSegmentLength <= 0 {
		opts.MaxSegmentLength = DefaultMaxLength
	}
	if opts.DefaultMaxLength <= 0 || opts.DefaultMaxLength > opts.MaxSegmentLength {
		opts.DefaultMaxLength = opts.MaxSegmentLength
	}
	if opts.DefaultSplitPolicy == "" {
		opts.DefaultSplitPolicy = string(SplitParagraph)
	}
	return &batchUC{jobs: jobs, runner: runner, archiver: archiver, opts: opts, log: logger}
}

// CreateJob validates the request, segments the text, registers the job and
// hands it to the runner. Nothing is stored when validation fails.
func (u *batchUC) CreateJob(ctx context.Context, in CreateJobInput) (*CreateJobOutput, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "BatchUC.CreateJob")()

	voiceName := in.Voice
	if strings.TrimSpace(voiceName) == "" {
		voiceName = model.DefaultVoice
	}
	voice, err := model.NewVoiceOptions(voiceName, in.Model)
	if err != nil {
		return nil, err
	}

	policyName := in.SplitPolicy
	if strings.TrimSpace(policyName) == "" {
		policyName = u.opts.DefaultSplitPolicy
	}
	policy, err := ParseSplitPolicy(policyName)
	if err != nil {
		return nil, err
	}

	maxLength := in.MaxLength
	switch {
	case maxLength <= 0:
		maxLength = u.opts.DefaultMaxLength
	case maxLength > u.opts.MaxSegmentLength:
		return nil, fmt.Errorf("%w: max_length %d exceeds %d", domain.ErrInvalidArgument, maxLength, u.opts.MaxSegmentLength)
	}

	if strings.TrimSpace(in.Text) == "" {
		return nil, domain.ErrEmptyText
	}
	log.Debug().Str("text", logging.Redact(in.Text, u.opts.Dev)).Int("runes", utf8.RuneCountInString(in.Text)).Msg("segmenting")
	segments, err := SplitText(in.Text, policy, maxLength)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, domain.ErrEmptyText
	}
	if u.opts.MaxSegments > 0 && len(segments) > u.opts.MaxSegments {
		return nil, fmt.Errorf("%w: %d segments, limit is %d", domain.ErrTooManySegments, len(segments), u.opts.MaxSegments)
	}

	id, err := u.jobs.Create(ctx, len(segments), voice)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	metrics.IncJobCreated()
	u.runner.RunJob(id, segments, voice, u.opts.Concurrency)

	log.Info().
		Str("job_id", id).
		Int("segments", len(segments)).
		Str("policy", string(policy)).
		Str("voice", voice.Voice).
		Str("model", voice.Model).
		Msg("batch job created")

	return &CreateJobOutput{JobID: id, TotalSegments: len(segments)}, nil
}

func (u *batchUC) GetJob(ctx context.Context, id string) (*model.BatchJob, error) {
	return u.jobs.Get(ctx, id)
}

func (u *batchUC) BuildArchive(ctx context.Context, id string) (*Archive, error) {
	defer logging.TraceDuration(u.log, "BatchUC.BuildArchive")()
	return u.archiver.Build(ctx, id)
}

func (u *batchUC) Voices() []model.Voice {
	return model.Voices()
}
