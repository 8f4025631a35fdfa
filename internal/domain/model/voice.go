package model

import (
	"fmt"
	"sort"
	"strings"

	"qwen-tts-batch/internal/domain"
)

const (
	DefaultTTSModel     = "qwen-tts-latest"
	AlternativeTTSModel = "qwen-tts-2025-05-22"
	DefaultVoice        = "Cherry"
)

// Voice describes one entry of the fixed voice catalog.
type Voice struct {
	Name        string `json:"name"`
	Language    string `json:"language"`
	Description string `json:"description"`
	Dialect     string `json:"dialect"`
}

var voiceCatalog = map[string]Voice{
	"Cherry":  {Name: "Cherry", Language: "zh-en", Description: "gentle, sweet female voice", Dialect: "standard Mandarin"},
	"Ethan":   {Name: "Ethan", Language: "zh-en", Description: "mature, steady male voice", Dialect: "standard Mandarin"},
	"Chelsie": {Name: "Chelsie", Language: "zh-en", Description: "lively, cute female voice", Dialect: "standard Mandarin"},
	"Serena":  {Name: "Serena", Language: "zh-en", Description: "elegant, intellectual female voice", Dialect: "standard Mandarin"},
	"Dylan":   {Name: "Dylan", Language: "zh", Description: "native Beijing male voice", Dialect: "Beijing"},
	"Jada":    {Name: "Jada", Language: "zh", Description: "gentle Shanghai female voice", Dialect: "Shanghainese"},
	"Sunny":   {Name: "Sunny", Language: "zh", Description: "warm Sichuan female voice", Dialect: "Sichuanese"},
}

// Voices returns the catalog sorted by name.
func Voices() []Voice {
	out := make([]Voice, 0, len(voiceCatalog))
	for _, v := range voiceCatalog {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func LookupVoice(name string) (Voice, bool) {
	v, ok := voiceCatalog[name]
	return v, ok
}

// VoiceOptions selects the voice and model used for every segment of a job.
type VoiceOptions struct {
	Voice string `json:"voice"`
	Model string `json:"model"`
}

// NewVoiceOptions validates voice against the catalog. An empty model falls
// back to DefaultTTSModel.
func NewVoiceOptions(voice, model string) (VoiceOptions, error) {
	voice = strings.TrimSpace(voice)
	model = strings.TrimSpace(model)
	if _, ok := voiceCatalog[voice]; !ok {
		return VoiceOptions{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedVoice, voice)
	}
	if model == "" {
		model = DefaultTTSModel
	}
	return VoiceOptions{Voice: voice, Model: model}, nil
}
