package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"
	"qwen-tts-batch/internal/domain/ports/repository"
	"qwen-tts-batch/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SynthesisUseCase = (*synthesisUC)(nil)

// SynthesisUseCase turns one short text into one stored artifact, synchronously.
type SynthesisUseCase interface {
	SynthesizeOne(ctx context.Context, in SynthesizeInput) (*SynthesizeOutput, error)
}

type SynthesizeInput struct {
	Text  string
	Voice string
	Model string
}

type SynthesizeOutput struct {
	ArtifactRef string
	Voice       model.Voice
	Options     model.VoiceOptions
	Elapsed     time.Duration
}

type synthesisUC struct {
	tts       adapter.TTSAdapter
	artifacts repository.ArtifactRepository
	maxLength int
	timeout   time.Duration
	log       *zerolog.Logger
}

// NewSynthesisUseCase rejects texts longer than maxLength runes and bounds
// the synthesize+store round trip by timeout (0 disables it).
func NewSynthesisUseCase(tts adapter.TTSAdapter, artifacts repository.ArtifactRepository, maxLength int, timeout time.Duration, logger *zerolog.Logger) *synthesisUC {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &synthesisUC{tts: tts, artifacts: artifacts, maxLength: maxLength, timeout: timeout, log: logger}
}

func (u *synthesisUC) SynthesizeOne(ctx context.Context, in SynthesizeInput) (*SynthesizeOutput, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "SynthesisUC.SynthesizeOne")()
	start := time.Now()

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, domain.ErrEmptyText
	}
	if n := utf8.RuneCountInString(text); n > u.maxLength {
		return nil, fmt.Errorf("%w: text is %d characters, limit is %d", domain.ErrInvalidArgument, n, u.maxLength)
	}

	voiceName := in.Voice
	if strings.TrimSpace(voiceName) == "" {
		voiceName = model.DefaultVoice
	}
	opts, err := model.NewVoiceOptions(voiceName, in.Model)
	if err != nil {
		return nil, err
	}
	info, _ := model.LookupVoice(opts.Voice)

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	audio, err := u.tts.Synthesize(ctx, text, opts)
	if err != nil {
		log.Warn().Err(err).Str("voice", opts.Voice).Str("model", opts.Model).Msg("synthesis failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", domain.ErrSynthesisFailed, u.timeout)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesisFailed, err)
	}
	if audio == nil || len(audio.Data) == 0 {
		return nil, fmt.Errorf("%w: provider returned no audio", domain.ErrSynthesisFailed)
	}

	ref, err := u.artifacts.Save(ctx, audio, opts)
	if err != nil {
		return nil, fmt.Errorf("store artifact: %w", err)
	}

	out := &SynthesizeOutput{ArtifactRef: ref, Voice: info, Options: opts, Elapsed: time.Since(start)}
	log.Info().
		Str("artifact", ref).
		Str("voice", opts.Voice).
		Str("model", opts.Model).
		Int("bytes", len(audio.Data)).
		Dur("elapsed", out.Elapsed).
		Msg("text synthesized")
	return out, nil
}
