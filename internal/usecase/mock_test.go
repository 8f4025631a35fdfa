//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sync"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/repository"
)

// -----------------------------
// Artifacts
// -----------------------------

type MockArtifactRepo struct {
	mu    sync.Mutex
	blobs map[string][]byte

	LoadErr error
}

var _ repository.ArtifactRepository = (*MockArtifactRepo)(nil)

func NewMockArtifactRepo() *MockArtifactRepo {
	return &MockArtifactRepo{blobs: map[string][]byte{}}
}

func (m *MockArtifactRepo) Put(ref string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[ref] = data
}

func (m *MockArtifactRepo) Save(ctx context.Context, audio *model.Audio, voice model.VoiceOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := fmt.Sprintf("%s_%d.%s", voice.Voice, len(m.blobs), audio.Format)
	m.blobs[ref] = audio.Data
	return ref, nil
}

func (m *MockArtifactRepo) Load(ctx context.Context, ref string) ([]byte, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// -----------------------------
// Runner
// -----------------------------

type runCall struct {
	JobID    string
	Segments []model.Segment
	Voice    model.VoiceOptions
	Limit    int
}

type MockRunner struct {
	mu    sync.Mutex
	Calls []runCall
}

func (m *MockRunner) RunJob(jobID string, segments []model.Segment, voice model.VoiceOptions, concurrencyLimit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, runCall{JobID: jobID, Segments: segments, Voice: voice, Limit: concurrencyLimit})
}

// -----------------------------
// Synthesizer
// -----------------------------

type MockTTS struct {
	mu       sync.Mutex
	Err      error
	Empty    bool
	Block    bool
	LastText string
	LastOpts model.VoiceOptions
}

func (m *MockTTS) Name() string { return "mock" }

func (m *MockTTS) Synthesize(ctx context.Context, text string, voice model.VoiceOptions) (*model.Audio, error) {
	m.mu.Lock()
	m.LastText, m.LastOpts = text, voice
	m.mu.Unlock()
	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Empty {
		return &model.Audio{Format: "wav"}, nil
	}
	return &model.Audio{Data: []byte("RIFF"), Format: "wav"}, nil
}
