package tts

import (
	"context"

	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.TTSAdapter = (*limitedTTS)(nil)

type limitedTTS struct {
	inner adapter.TTSAdapter
	sem   chan struct{}
}

// NewLimitedTTS caps concurrent Synthesize calls across every job.
func NewLimitedTTS(inner adapter.TTSAdapter, maxConcurrent int) adapter.TTSAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedTTS{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedTTS) Name() string { return l.inner.Name() }

func (l *limitedTTS) Synthesize(ctx context.Context, text string, voice model.VoiceOptions) (*model.Audio, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Synthesize(ctx, text, voice)
}
