//go:build !integration

package bus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"qwen-tts-batch/internal/domain/model"

	"github.com/rs/zerolog"
)

type capturePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *capturePublisher) Publish(subj string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subj)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestNATSNotifier_Publish(t *testing.T) {
	logger := zerolog.Nop()
	pub := &capturePublisher{}
	n := newNotifier(pub, "tts.batch.progress", &logger)

	job := model.NewBatchJob("job-1", 4, model.VoiceOptions{Voice: "Cherry"}, time.Now())
	job.Apply(model.NewSuccessResult(model.Segment{Index: 0, Text: "a"}, "r.wav", job.Voice), time.Now())

	if err := n.Publish(context.Background(), job); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(pub.subjects) != 1 || pub.subjects[0] != "tts.batch.progress.job-1" {
		t.Fatalf("subjects = %v", pub.subjects)
	}
	var ev ProgressEvent
	if err := json.Unmarshal(pub.payloads[0], &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.JobID != "job-1" || ev.Status != model.JobStatusProcessing || ev.CompletedSegments != 1 || ev.Progress != 25 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestNATSNotifier_PublishError(t *testing.T) {
	logger := zerolog.Nop()
	n := newNotifier(&capturePublisher{err: errors.New("nats: connection closed")}, "p", &logger)
	job := model.NewBatchJob("j", 1, model.VoiceOptions{}, time.Now())
	if err := n.Publish(context.Background(), job); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestNATSNotifier_HealthyWithoutConn(t *testing.T) {
	logger := zerolog.Nop()
	n := newNotifier(&capturePublisher{}, "p", &logger)
	if n.Healthy() {
		t.Fatal("notifier without a connection must not report healthy")
	}
	n.Close()
}
