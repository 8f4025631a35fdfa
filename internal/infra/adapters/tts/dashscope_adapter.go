package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"
)

const (
	ProviderDashScope = "dashscope"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderExec      = "exec"
	ProviderNoop      = "noop"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TTSAdapter = (*DashScopeAdapter)(nil)

// DashScopeAdapter calls the Qwen-TTS multimodal generation endpoint and
// downloads the audio file it points to.
// Authorization: Bearer <DASHSCOPE_API_KEY>
type DashScopeAdapter struct {
	apiKey   string
	base     string // e.g., https://dashscope.aliyuncs.com/api/v1
	voices   VoiceMapper
	client   *http.Client
	download *http.Client
}

func NewDashScopeAdapter(apiKey, base string, requestTimeout, downloadTimeout time.Duration, voiceMap map[string]string) (*DashScopeAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("dashscope api key empty")
	}
	if base == "" {
		base = "https://dashscope.aliyuncs.com/api/v1"
	}
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	if downloadTimeout <= 0 {
		downloadTimeout = 60 * time.Second
	}
	return &DashScopeAdapter{
		apiKey:   apiKey,
		base:     strings.TrimRight(base, "/"),
		voices:   NewVoiceMapper(ProviderDashScope, voiceMap),
		client:   &http.Client{Timeout: requestTimeout},
		download: &http.Client{Timeout: downloadTimeout},
	}, nil
}

func (d *DashScopeAdapter) Name() string { return ProviderDashScope }

type dashScopeRequest struct {
	Model string `json:"model"`
	Input struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	} `json:"input"`
}

type dashScopeResponse struct {
	Output struct {
		Audio *struct {
			URL  string `json:"url"`
			Data string `json:"data"`
		} `json:"audio"`
	} `json:"output"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (d *DashScopeAdapter) Synthesize(ctx context.Context, text string, voice model.VoiceOptions) (*model.Audio, error) {
	var reqBody dashScopeRequest
	reqBody.Model = voice.Model
	if reqBody.Model == "" {
		reqBody.Model = model.DefaultTTSModel
	}
	reqBody.Input.Text = text
	reqBody.Input.Voice = d.voices.Resolve(voice.Voice)

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.base+"/services/aigc/multimodal-generation/generation", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload dashScopeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("dashscope: decode response: %w", err)
	}
	if resp.StatusCode >= 300 || payload.Code != "" {
		return nil, &ProviderError{Provider: ProviderDashScope, Status: resp.StatusCode, Code: payload.Code, Message: payload.Message}
	}
	if payload.Output.Audio == nil {
		return nil, errors.New("dashscope: response has no audio")
	}

	// Inline audio is returned by the streaming variant; the plain call hands out a URL.
	if payload.Output.Audio.Data != "" {
		data, err := base64.StdEncoding.DecodeString(payload.Output.Audio.Data)
		if err != nil {
			return nil, fmt.Errorf("dashscope: decode inline audio: %w", err)
		}
		return &model.Audio{Data: data, Format: "wav"}, nil
	}
	if payload.Output.Audio.URL == "" {
		return nil, errors.New("dashscope: response has no audio url")
	}

	data, err := d.fetch(ctx, payload.Output.Audio.URL)
	if err != nil {
		return nil, err
	}
	return &model.Audio{Data: data, Format: "wav", SourceURL: payload.Output.Audio.URL}, nil
}

func (d *DashScopeAdapter) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dashscope: download audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dashscope: download audio: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dashscope: download audio: %w", err)
	}
	return data, nil
}
