//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/infra/db/memory"
	"qwen-tts-batch/internal/usecase"

	"github.com/rs/zerolog"
)

func newBatchUC(t *testing.T, opts usecase.BatchOptions) (usecase.BatchUseCase, *memory.BatchJobRepo, *MockRunner) {
	t.Helper()
	logger := zerolog.Nop()
	jobs := memory.NewBatchJobRepo(&logger)
	runner := &MockRunner{}
	archiver := usecase.NewArchiver(jobs, NewMockArtifactRepo(), t.TempDir(), &logger)
	return usecase.NewBatchUseCase(jobs, runner, archiver, opts, &logger), jobs, runner
}

func defaultOpts() usecase.BatchOptions {
	return usecase.BatchOptions{Concurrency: 3, MaxSegments: 100, DefaultMaxLength: 1000, MaxSegmentLength: 1000, DefaultSplitPolicy: "paragraph"}
}

func TestCreateJob_SchedulesSegments(t *testing.T) {
	ctx := context.Background()
	uc, jobs, runner := newBatchUC(t, defaultOpts())

	out, err := uc.CreateJob(ctx, usecase.CreateJobInput{
		Text:        "Para one.\n\nPara two is quite a bit longer than the limit of twenty chars.",
		SplitPolicy: "paragraph",
		MaxLength:   20,
		Voice:       "Ethan",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if out.TotalSegments != 5 {
		t.Fatalf("total segments = %d, want 5", out.TotalSegments)
	}

	job, err := jobs.Get(ctx, out.JobID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if job.Status != model.JobStatusPending || job.TotalSegments != 5 {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Voice.Model != model.DefaultTTSModel {
		t.Fatalf("model = %q, want default", job.Voice.Model)
	}

	if len(runner.Calls) != 1 {
		t.Fatalf("runner called %d times", len(runner.Calls))
	}
	call := runner.Calls[0]
	if call.JobID != out.JobID || len(call.Segments) != 5 || call.Limit != 3 || call.Voice.Voice != "Ethan" {
		t.Fatalf("unexpected run call %+v", call)
	}
}

func TestCreateJob_Defaults(t *testing.T) {
	uc, _, runner := newBatchUC(t, defaultOpts())

	if _, err := uc.CreateJob(context.Background(), usecase.CreateJobInput{Text: "a\n\nb"}); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	call := runner.Calls[0]
	if call.Voice.Voice != model.DefaultVoice {
		t.Fatalf("voice = %q, want %q", call.Voice.Voice, model.DefaultVoice)
	}
	if len(call.Segments) != 2 {
		t.Fatalf("default paragraph policy gave %d segments", len(call.Segments))
	}
}

func TestCreateJob_Validation(t *testing.T) {
	opts := defaultOpts()
	opts.MaxSegments = 3

	tests := []struct {
		name string
		in   usecase.CreateJobInput
		want error
	}{
		{"unsupported voice", usecase.CreateJobInput{Text: "hi", Voice: "Nobody"}, domain.ErrUnsupportedVoice},
		{"empty text", usecase.CreateJobInput{Text: "   \n\t"}, domain.ErrEmptyText},
		{"unknown policy", usecase.CreateJobInput{Text: "hi", SplitPolicy: "word"}, domain.ErrUnknownSplitPolicy},
		{"max length above ceiling", usecase.CreateJobInput{Text: "hi", MaxLength: 5000}, domain.ErrInvalidArgument},
		{"too many segments", usecase.CreateJobInput{Text: strings.Repeat("p\n\n", 4)}, domain.ErrTooManySegments},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uc, _, runner := newBatchUC(t, opts)
			_, err := uc.CreateJob(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("validation errors must wrap ErrInvalidArgument, got %v", err)
			}
			if len(runner.Calls) != 0 {
				t.Fatal("runner must not be called on validation failure")
			}
		})
	}
}

func TestGetJob_UnknownID(t *testing.T) {
	uc, _, _ := newBatchUC(t, defaultOpts())
	job, err := uc.GetJob(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if job != nil {
		t.Fatalf("want nil job, got %+v", job)
	}
}

func TestVoices(t *testing.T) {
	uc, _, _ := newBatchUC(t, defaultOpts())
	voices := uc.Voices()
	if len(voices) != 7 {
		t.Fatalf("catalog has %d voices, want 7", len(voices))
	}
	for i := 1; i < len(voices); i++ {
		if voices[i-1].Name > voices[i].Name {
			t.Fatalf("voices not sorted: %v", voices)
		}
	}
}
