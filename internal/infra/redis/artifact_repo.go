package redis

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/repository"

	"github.com/oklog/ulid/v2"
)

const artifactKeyPrefix = "tts_artifact:"

var _ repository.ArtifactRepository = (*ArtifactRepo)(nil)

// ArtifactRepo keeps audio bytes in redis so several instances can serve
// downloads. Refs are "<ulid>.<format>"; keys expire after ttl.
type ArtifactRepo struct {
	client RedisClient
	ttl    time.Duration
	now    func() time.Time
}

func NewArtifactRepo(client RedisClient, ttl time.Duration) *ArtifactRepo {
	return &ArtifactRepo{client: client, ttl: ttl, now: time.Now}
}

func (r *ArtifactRepo) Save(ctx context.Context, audio *model.Audio, voice model.VoiceOptions) (string, error) {
	if audio == nil || len(audio.Data) == 0 {
		return "", fmt.Errorf("%w: empty audio", domain.ErrInvalidArgument)
	}
	format := audio.Format
	if format == "" {
		format = "wav"
	}
	id, err := ulid.New(ulid.Timestamp(r.now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate artifact id: %w", err)
	}
	ref := strings.ToLower(id.String()) + "." + format
	if err := r.client.Set(ctx, artifactKeyPrefix+ref, audio.Data, r.ttl); err != nil {
		return "", fmt.Errorf("redis set artifact: %w", err)
	}
	return ref, nil
}

func (r *ArtifactRepo) Load(ctx context.Context, ref string) ([]byte, error) {
	data, err := r.client.GetBytes(ctx, artifactKeyPrefix+ref)
	if errors.Is(err, Nil) {
		return nil, fmt.Errorf("artifact %s: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get artifact: %w", err)
	}
	return data, nil
}

// Delete removes an artifact; missing keys are not an error.
func (r *ArtifactRepo) Delete(ctx context.Context, ref string) error {
	return r.client.Del(ctx, artifactKeyPrefix+ref)
}
