package tts

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"
)

var _ adapter.TTSAdapter = (*GeminiAdapter)(nil)

// Gemini speech output is raw 16-bit PCM at this rate.
const geminiSampleRate = 24000

type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
	voices       VoiceMapper
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string, voiceMap map[string]string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel, voices: NewVoiceMapper(ProviderGemini, voiceMap)}, nil
}

func (g *GeminiAdapter) Name() string { return ProviderGemini }

func (g *GeminiAdapter) Synthesize(ctx context.Context, text string, voice model.VoiceOptions) (*model.Audio, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelFor(voice.Model), genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voices.Resolve(voice.Voice)},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	var pcm []byte
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p != nil && p.InlineData != nil {
				pcm = append(pcm, p.InlineData.Data...)
			}
		}
	}
	if len(pcm) == 0 {
		return nil, errors.New("gemini: response has no audio")
	}

	data, err := PCMToWAV(pcm, geminiSampleRate, 1)
	if err != nil {
		return nil, err
	}
	return &model.Audio{Data: data, Format: "wav"}, nil
}

func (g *GeminiAdapter) modelFor(m string) string {
	if strings.HasPrefix(strings.ToLower(m), "gemini") {
		return m
	}
	return g.defaultModel
}
