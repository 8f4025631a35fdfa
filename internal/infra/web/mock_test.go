//go:build !integration

package web

import (
	"context"
	"testing"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/usecase"
)

// --- Mock use case ---

type mockBatchUC struct {
	CreateFunc  func(ctx context.Context, in usecase.CreateJobInput) (*usecase.CreateJobOutput, error)
	GetFunc     func(ctx context.Context, id string) (*model.BatchJob, error)
	ArchiveFunc func(ctx context.Context, id string) (*usecase.Archive, error)

	lastCreate usecase.CreateJobInput
}

var _ usecase.BatchUseCase = (*mockBatchUC)(nil)

func (m *mockBatchUC) CreateJob(ctx context.Context, in usecase.CreateJobInput) (*usecase.CreateJobOutput, error) {
	m.lastCreate = in
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	return &usecase.CreateJobOutput{JobID: "job-1", TotalSegments: 1}, nil
}

func (m *mockBatchUC) GetJob(ctx context.Context, id string) (*model.BatchJob, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockBatchUC) BuildArchive(ctx context.Context, id string) (*usecase.Archive, error) {
	if m.ArchiveFunc != nil {
		return m.ArchiveFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockBatchUC) Voices() []model.Voice { return model.Voices() }

type mockSynthUC struct {
	Func func(ctx context.Context, in usecase.SynthesizeInput) (*usecase.SynthesizeOutput, error)

	last usecase.SynthesizeInput
}

var _ usecase.SynthesisUseCase = (*mockSynthUC)(nil)

func (m *mockSynthUC) SynthesizeOne(ctx context.Context, in usecase.SynthesizeInput) (*usecase.SynthesizeOutput, error) {
	m.last = in
	if m.Func != nil {
		return m.Func(ctx, in)
	}
	return nil, domain.ErrSynthesisFailed
}

// --- Mock artifacts ---

type mockArtifacts struct {
	blobs map[string][]byte
}

func (m *mockArtifacts) Save(ctx context.Context, audio *model.Audio, voice model.VoiceOptions) (string, error) {
	return "", nil
}

func (m *mockArtifacts) Load(ctx context.Context, ref string) ([]byte, error) {
	b, ok := m.blobs[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// stagedArchive builds a real archive through the use case package so the
// handler streams a genuine staged file.
func stagedArchive(t *testing.T) *usecase.Archive {
	t.Helper()
	ctx := context.Background()
	jobs := newTestJobs()
	id, _ := jobs.Create(ctx, 1, model.VoiceOptions{Voice: "Cherry", Model: model.DefaultTTSModel})
	_, _ = jobs.RecordResult(ctx, id, model.NewSuccessResult(model.Segment{Index: 0, Text: "hi"}, "a.wav", model.VoiceOptions{Voice: "Cherry"}))

	arts := &mockArtifacts{blobs: map[string][]byte{"a.wav": []byte("RIFF")}}
	archive, err := usecase.NewArchiver(jobs, arts, t.TempDir(), nil).Build(ctx, id)
	if err != nil {
		t.Fatalf("build archive: %v", err)
	}
	return archive
}
