package repository

import (
	"context"

	"qwen-tts-batch/internal/domain/model"
)

// ArtifactRepository persists synthesized audio and hands back an opaque ref.
type ArtifactRepository interface {
	Save(ctx context.Context, audio *model.Audio, voice model.VoiceOptions) (string, error)
	Load(ctx context.Context, ref string) ([]byte, error)
}
