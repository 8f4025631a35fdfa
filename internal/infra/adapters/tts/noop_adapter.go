package tts

import (
	"context"
	"time"

	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"
)

var _ adapter.TTSAdapter = (*NoopAdapter)(nil)

// NoopAdapter returns a short silent clip for local/dev runs.
type NoopAdapter struct {
	delay      time.Duration
	sampleRate int
}

func NewNoopAdapter(delay time.Duration) *NoopAdapter {
	return &NoopAdapter{delay: delay, sampleRate: 16000}
}

func (a *NoopAdapter) Name() string { return ProviderNoop }

// Synthesize produces 10ms of silence per rune of text.
func (a *NoopAdapter) Synthesize(ctx context.Context, text string, voice model.VoiceOptions) (*model.Audio, error) {
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	samples := len([]rune(text)) * a.sampleRate / 100
	if samples == 0 {
		samples = a.sampleRate / 100
	}
	data, err := PCMToWAV(make([]byte, samples*2), a.sampleRate, 1)
	if err != nil {
		return nil, err
	}
	return &model.Audio{Data: data, Format: "wav"}, nil
}
