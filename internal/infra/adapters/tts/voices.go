package tts

import "strings"

// Catalog voice -> provider voice. Config entries under tts.voice_map take
// precedence over these.
var defaultVoiceMaps = map[string]map[string]string{
	ProviderOpenAI: {
		"Cherry":  "coral",
		"Ethan":   "onyx",
		"Chelsie": "nova",
		"Serena":  "shimmer",
		"Dylan":   "echo",
		"Jada":    "sage",
		"Sunny":   "alloy",
	},
	ProviderGemini: {
		"Cherry":  "Kore",
		"Ethan":   "Charon",
		"Chelsie": "Leda",
		"Serena":  "Aoede",
		"Dylan":   "Puck",
		"Jada":    "Callirrhoe",
		"Sunny":   "Zephyr",
	},
}

// VoiceMapper translates catalog voices for one provider.
type VoiceMapper map[string]string

// NewVoiceMapper merges the built-in defaults for provider with overrides.
func NewVoiceMapper(provider string, overrides map[string]string) VoiceMapper {
	m := VoiceMapper{}
	for k, v := range defaultVoiceMaps[strings.ToLower(provider)] {
		m[k] = v
	}
	for k, v := range overrides {
		if strings.TrimSpace(v) != "" {
			m[k] = v
		}
	}
	return m
}

// Resolve returns the provider voice, or the catalog name when unmapped.
func (m VoiceMapper) Resolve(voice string) string {
	if v, ok := m[voice]; ok {
		return v
	}
	return voice
}
