package tts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"
)

var _ adapter.TTSAdapter = (*ExecAdapter)(nil)

// ExecAdapter runs a local synthesizer command per segment. The command
// reads one JSON request on stdin and writes JSON lines carrying base64 PCM.
type ExecAdapter struct {
	cmd        []string
	sampleRate int
	channels   int
}

type execRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	Model      string `json:"model"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type execResponse struct {
	PCMBase64 string `json:"pcm_base64"`
	Final     bool   `json:"final"`
}

func NewExecAdapter(command string, sampleRate, channels int) (*ExecAdapter, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("tts command empty")
	}
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	if channels <= 0 {
		channels = 1
	}
	return &ExecAdapter{cmd: args, sampleRate: sampleRate, channels: channels}, nil
}

func (e *ExecAdapter) Name() string { return ProviderExec }

func (e *ExecAdapter) Synthesize(ctx context.Context, text string, voice model.VoiceOptions) (*model.Audio, error) {
	data, err := json.Marshal(execRequest{
		Text:       text,
		Voice:      voice.Voice,
		Model:      voice.Model,
		SampleRate: e.sampleRate,
		Channels:   e.channels,
	})
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, e.cmd[0], e.cmd[1:]...)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start tts command: %w", err)
	}

	var pcm []byte
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp execResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			_ = cmd.Wait()
			return nil, fmt.Errorf("decode tts output: %w", err)
		}
		chunk, err := base64.StdEncoding.DecodeString(resp.PCMBase64)
		if err != nil {
			_ = cmd.Wait()
			return nil, fmt.Errorf("decode pcm: %w", err)
		}
		pcm = append(pcm, chunk...)
		if resp.Final {
			break
		}
	}
	scanErr := scanner.Err()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("tts command: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("tts command: %w", err)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("tts command produced no audio")
	}

	wavData, err := PCMToWAV(pcm, e.sampleRate, e.channels)
	if err != nil {
		return nil, err
	}
	return &model.Audio{Data: wavData, Format: "wav"}, nil
}
