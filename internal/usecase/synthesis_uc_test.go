//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/usecase"
)

func TestSynthesizeOne_StoresArtifact(t *testing.T) {
	ctx := context.Background()
	synth := &MockTTS{}
	arts := NewMockArtifactRepo()
	uc := usecase.NewSynthesisUseCase(synth, arts, 100, time.Second, nil)

	out, err := uc.SynthesizeOne(ctx, usecase.SynthesizeInput{Text: "  你好，世界  ", Voice: "Dylan"})
	if err != nil {
		t.Fatalf("SynthesizeOne: %v", err)
	}
	if synth.LastText != "你好，世界" {
		t.Fatalf("synthesized %q, want trimmed text", synth.LastText)
	}
	if out.Options.Voice != "Dylan" || out.Options.Model != model.DefaultTTSModel {
		t.Fatalf("options = %+v", out.Options)
	}
	if out.Voice.Dialect != "Beijing" {
		t.Fatalf("voice info = %+v", out.Voice)
	}
	data, err := arts.Load(ctx, out.ArtifactRef)
	if err != nil || string(data) != "RIFF" {
		t.Fatalf("artifact %q not stored: %v", out.ArtifactRef, err)
	}
}

func TestSynthesizeOne_DefaultVoice(t *testing.T) {
	synth := &MockTTS{}
	uc := usecase.NewSynthesisUseCase(synth, NewMockArtifactRepo(), 100, 0, nil)
	if _, err := uc.SynthesizeOne(context.Background(), usecase.SynthesizeInput{Text: "hi"}); err != nil {
		t.Fatalf("SynthesizeOne: %v", err)
	}
	if synth.LastOpts.Voice != model.DefaultVoice {
		t.Fatalf("voice = %q", synth.LastOpts.Voice)
	}
}

func TestSynthesizeOne_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   usecase.SynthesizeInput
		want error
	}{
		{"empty text", usecase.SynthesizeInput{Text: " \n "}, domain.ErrEmptyText},
		{"too long", usecase.SynthesizeInput{Text: strings.Repeat("语", 11)}, domain.ErrInvalidArgument},
		{"unknown voice", usecase.SynthesizeInput{Text: "hi", Voice: "Alloy"}, domain.ErrUnsupportedVoice},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			synth := &MockTTS{}
			uc := usecase.NewSynthesisUseCase(synth, NewMockArtifactRepo(), 10, 0, nil)
			_, err := uc.SynthesizeOne(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if synth.LastText != "" {
				t.Fatal("synthesizer must not be called on invalid input")
			}
		})
	}
}

func TestSynthesizeOne_ProviderFailures(t *testing.T) {
	tests := []struct {
		name    string
		synth   *MockTTS
		timeout time.Duration
		msg     string
	}{
		{"provider error", &MockTTS{Err: errors.New("dashscope: too many requests, try again later")}, 0, "too many requests"},
		{"empty audio", &MockTTS{Empty: true}, 0, "no audio"},
		{"timeout", &MockTTS{Block: true}, 20 * time.Millisecond, "timed out"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uc := usecase.NewSynthesisUseCase(tc.synth, NewMockArtifactRepo(), 100, tc.timeout, nil)
			_, err := uc.SynthesizeOne(context.Background(), usecase.SynthesizeInput{Text: "hello"})
			if !errors.Is(err, domain.ErrSynthesisFailed) {
				t.Fatalf("want ErrSynthesisFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("error %q should mention %q", err, tc.msg)
			}
		})
	}
}
