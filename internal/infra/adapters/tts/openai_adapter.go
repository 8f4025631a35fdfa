package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TTSAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.TTSAdapter using the audio speech API.
type OpenAIAdapter struct {
	client openai.Client
	model  string
	voices VoiceMapper
}

func NewOpenAIAdapter(apiKey, defaultModel string, timeout time.Duration, voiceMap map[string]string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini-tts"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &OpenAIAdapter{
		client: openai.NewClient(opts...),
		model:  defaultModel,
		voices: NewVoiceMapper(ProviderOpenAI, voiceMap),
	}, nil
}

func (o *OpenAIAdapter) Name() string { return ProviderOpenAI }

func (o *OpenAIAdapter) Synthesize(ctx context.Context, text string, voice model.VoiceOptions) (*model.Audio, error) {
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(o.modelFor(voice.Model)),
		Voice:          openai.AudioSpeechNewParamsVoice(o.voices.Resolve(voice.Voice)),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Provider: ProviderOpenAI, Status: apiErr.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read audio: %w", err)
	}
	return &model.Audio{Data: data, Format: "wav"}, nil
}

// modelFor keeps OpenAI speech models and swaps anything else (catalog
// defaults such as qwen-tts-latest) for the configured model.
func (o *OpenAIAdapter) modelFor(m string) string {
	l := strings.ToLower(m)
	if strings.HasPrefix(l, "tts-") || strings.HasPrefix(l, "gpt") {
		return m
	}
	return o.model
}
