package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"
	"qwen-tts-batch/internal/infra/metrics"
)

var _ adapter.TTSAdapter = (*MultiTTSAdapter)(nil)

type MultiTTSAdapter struct {
	defaultProvider string
	byProvider      map[string]adapter.TTSAdapter
	modelToProvider map[string]string // model -> provider
}

// NewMultiTTSAdapter routes each call by model name. It only knows a default
// provider; each provider adapter owns its own default model.
func NewMultiTTSAdapter(
	defaultProvider string,
	byProvider map[string]adapter.TTSAdapter,
	modelToProvider map[string]string,
) *MultiTTSAdapter {
	return &MultiTTSAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
	}
}

func (m *MultiTTSAdapter) Name() string { return "multi" }

func (m *MultiTTSAdapter) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "qwen"):
		if _, ok := m.byProvider[ProviderDashScope]; ok {
			return ProviderDashScope
		}
	case strings.HasPrefix(l, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(l, "tts-"), strings.HasPrefix(l, "gpt"):
		return ProviderOpenAI
	}
	return m.defaultProvider
}

func (m *MultiTTSAdapter) pick(model string) (string, adapter.TTSAdapter) {
	prov := m.resolveProvider(model)
	if a := m.byProvider[prov]; a != nil {
		return prov, a
	}
	if a := m.byProvider[m.defaultProvider]; a != nil {
		return m.defaultProvider, a
	}
	return prov, nil
}

func (m *MultiTTSAdapter) Synthesize(ctx context.Context, text string, voice model.VoiceOptions) (*model.Audio, error) {
	prov, a := m.pick(voice.Model)
	if a == nil {
		return nil, fmt.Errorf("no tts provider configured for model %q", voice.Model)
	}
	start := time.Now()
	audio, err := a.Synthesize(ctx, text, voice)
	metrics.ObserveSynthesis(prov, voice.Model, time.Since(start), err == nil)
	return audio, err
}
