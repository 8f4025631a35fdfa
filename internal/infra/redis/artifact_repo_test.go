//go:build !integration

package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return f.err }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[key]
	if !ok {
		return nil, Nil
	}
	return b, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

func TestArtifactRepo_SaveLoad(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	repo := NewArtifactRepo(fake, time.Hour)

	ref, err := repo.Save(ctx, &model.Audio{Data: []byte("RIFF"), Format: "wav"}, model.VoiceOptions{Voice: "Cherry"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(ref, ".wav") || len(ref) != 26+len(".wav") {
		t.Fatalf("unexpected ref %q", ref)
	}
	if ttl := fake.ttls[artifactKeyPrefix+ref]; ttl != time.Hour {
		t.Fatalf("ttl = %s", ttl)
	}

	got, err := repo.Load(ctx, ref)
	if err != nil || string(got) != "RIFF" {
		t.Fatalf("Load = %q, %v", got, err)
	}

	other, _ := repo.Save(ctx, &model.Audio{Data: []byte("x")}, model.VoiceOptions{})
	if other == ref {
		t.Fatal("refs must be unique")
	}

	if err := repo.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Load(ctx, ref); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestArtifactRepo_Errors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	repo := NewArtifactRepo(fake, time.Hour)

	if _, err := repo.Save(ctx, &model.Audio{}, model.VoiceOptions{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("empty audio: want ErrInvalidArgument, got %v", err)
	}

	fake.err = errors.New("connection refused")
	if _, err := repo.Save(ctx, &model.Audio{Data: []byte("x")}, model.VoiceOptions{}); err == nil {
		t.Fatal("expected redis error")
	}
	if _, err := repo.Load(ctx, "missing.wav"); err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("transport errors must not look like NotFound: %v", err)
	}
}
