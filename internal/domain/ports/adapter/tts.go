package adapter

import (
	"context"

	"qwen-tts-batch/internal/domain/model"
)

// TTSAdapter is the port for remote speech synthesis.
type TTSAdapter interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Synthesize converts one piece of text into audio. Any non-nil error
	// is treated by the caller as a failed segment; provider-specific codes
	// are not interpreted beyond that.
	Synthesize(ctx context.Context, text string, voice model.VoiceOptions) (*model.Audio, error)
}
