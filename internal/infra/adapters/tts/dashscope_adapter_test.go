//go:build !integration

package tts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/infra/adapters/tts"
)

func TestDashScope_SynthesizeDownloadsAudio(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/aigc/multimodal-generation/generation":
			if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Errorf("authorization = %q", got)
			}
			var body struct {
				Model string `json:"model"`
				Input struct {
					Text  string `json:"text"`
					Voice string `json:"voice"`
				} `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if body.Model != "qwen-tts-latest" || body.Input.Voice != "Dylan" || body.Input.Text != "hello" {
				t.Errorf("unexpected request %+v", body)
			}
			_, _ = w.Write([]byte(`{"output":{"audio":{"url":"` + srv.URL + `/files/a.wav"}},"request_id":"r1"}`))
		case "/files/a.wav":
			_, _ = w.Write([]byte("RIFF....WAVEdata"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a, err := tts.NewDashScopeAdapter("sk-test", srv.URL+"/", time.Second, time.Second, nil)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	audio, err := a.Synthesize(context.Background(), "hello", model.VoiceOptions{Voice: "Dylan", Model: "qwen-tts-latest"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio.Data) != "RIFF....WAVEdata" || audio.Format != "wav" {
		t.Fatalf("unexpected audio %+v", audio)
	}
	if !strings.HasSuffix(audio.SourceURL, "/files/a.wav") {
		t.Fatalf("source url = %q", audio.SourceURL)
	}
}

func TestDashScope_HumanizedErrors(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   string
	}{
		{http.StatusUnauthorized, "InvalidApiKey", "invalid API key"},
		{http.StatusBadRequest, "InvalidApiKey", "invalid API key"},
		{http.StatusForbidden, "AccessDenied", "lacks permission"},
		{http.StatusTooManyRequests, "Throttling", "too many requests"},
		{http.StatusInternalServerError, "InternalError", "internal error"},
		{http.StatusBadRequest, "InvalidParameter", "text too long (InvalidParameter, http 400)"},
	}
	for _, tc := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"code":"` + tc.code + `","message":"text too long"}`))
		}))

		a, _ := tts.NewDashScopeAdapter("sk-test", srv.URL, time.Second, time.Second, nil)
		_, err := a.Synthesize(context.Background(), "x", model.VoiceOptions{Voice: "Cherry"})
		srv.Close()

		var pe *tts.ProviderError
		if !errors.As(err, &pe) || pe.Status != tc.status {
			t.Fatalf("%d/%s: want ProviderError, got %v", tc.status, tc.code, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%d/%s: message %q does not contain %q", tc.status, tc.code, err.Error(), tc.want)
		}
	}
}

func TestDashScope_DownloadFailure(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone.wav" {
			w.WriteHeader(http.StatusGone)
			return
		}
		_, _ = w.Write([]byte(`{"output":{"audio":{"url":"` + srv.URL + `/gone.wav"}}}`))
	}))
	defer srv.Close()

	a, _ := tts.NewDashScopeAdapter("sk-test", srv.URL, time.Second, time.Second, nil)
	_, err := a.Synthesize(context.Background(), "x", model.VoiceOptions{Voice: "Cherry"})
	if err == nil || !strings.Contains(err.Error(), "download audio") {
		t.Fatalf("want download error, got %v", err)
	}
}

func TestDashScope_RequiresKey(t *testing.T) {
	if _, err := tts.NewDashScopeAdapter("", "", 0, 0, nil); err == nil {
		t.Fatal("expected error for empty key")
	}
}
