package tts

import (
	"context"
	"fmt"

	"qwen-tts-batch/internal/config"
	"qwen-tts-batch/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// NewFromConfig builds every provider that has credentials, routes between
// them and applies the global concurrency cap.
func NewFromConfig(ctx context.Context, cfg config.TTSConfig, logger *zerolog.Logger) (adapter.TTSAdapter, error) {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	byProvider := map[string]adapter.TTSAdapter{}

	if cfg.DashScopeKey != "" {
		a, err := NewDashScopeAdapter(cfg.DashScopeKey, cfg.DashScopeURL, cfg.RequestTimeout, cfg.DownloadTimeout, cfg.VoiceMap[ProviderDashScope])
		if err != nil {
			return nil, err
		}
		byProvider[ProviderDashScope] = a
	}
	if cfg.OpenAIKey != "" {
		a, err := NewOpenAIAdapter(cfg.OpenAIKey, cfg.OpenAIModel, cfg.RequestTimeout, cfg.VoiceMap[ProviderOpenAI])
		if err != nil {
			return nil, err
		}
		byProvider[ProviderOpenAI] = a
	}
	if cfg.GeminiKey != "" {
		a, err := NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, cfg.GeminiModel, cfg.VoiceMap[ProviderGemini])
		if err != nil {
			return nil, err
		}
		byProvider[ProviderGemini] = a
	}
	if cfg.ExecCommand != "" {
		a, err := NewExecAdapter(cfg.ExecCommand, cfg.SampleRate, cfg.Channels)
		if err != nil {
			return nil, err
		}
		byProvider[ProviderExec] = a
	}
	if cfg.DefaultProvider == ProviderNoop || len(byProvider) == 0 {
		byProvider[ProviderNoop] = NewNoopAdapter(0)
	}

	def := cfg.DefaultProvider
	if byProvider[def] == nil {
		if len(byProvider) != 1 || byProvider[ProviderNoop] == nil {
			return nil, fmt.Errorf("default tts provider %q is not configured", def)
		}
		logger.Warn().Str("provider", def).Msg("no tts credentials configured, falling back to noop synthesizer")
		def = ProviderNoop
	}

	names := make([]string, 0, len(byProvider))
	for n := range byProvider {
		names = append(names, n)
	}
	logger.Info().Strs("providers", names).Str("default", def).Int("max_concurrent", cfg.MaxConcurrent).Msg("tts adapters ready")

	return NewLimitedTTS(NewMultiTTSAdapter(def, byProvider, cfg.ModelProviders), cfg.MaxConcurrent), nil
}
