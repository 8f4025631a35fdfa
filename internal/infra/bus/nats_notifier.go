package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"qwen-tts-batch/internal/config"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/adapter"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

var (
	_ adapter.ProgressNotifier = (*NATSNotifier)(nil)
	_ adapter.ProgressNotifier = NoopNotifier{}
)

// ProgressEvent is published on {subject_prefix}.{job_id} after every
// recorded segment.
type ProgressEvent struct {
	JobID             string          `json:"job_id"`
	Status            model.JobStatus `json:"status"`
	TotalSegments     int             `json:"total_segments"`
	CompletedSegments int             `json:"completed_segments"`
	FailedSegments    int             `json:"failed_segments"`
	Progress          float64         `json:"progress_percentage"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func NewProgressEvent(job *model.BatchJob) ProgressEvent {
	return ProgressEvent{
		JobID:             job.ID,
		Status:            job.Status,
		TotalSegments:     job.TotalSegments,
		CompletedSegments: job.CompletedSegments,
		FailedSegments:    job.FailedSegments,
		Progress:          job.Progress(),
		UpdatedAt:         job.UpdatedAt,
	}
}

type publisher interface {
	Publish(subj string, data []byte) error
}

type NATSNotifier struct {
	conn   *nats.Conn
	pub    publisher
	prefix string
	log    *zerolog.Logger
}

func Connect(cfg config.BusConfig, logger *zerolog.Logger) (*NATSNotifier, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("qwen-tts-batch"),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info().Str("url", cfg.URL).Str("subject_prefix", cfg.SubjectPrefix).Msg("connected to NATS")

	n := newNotifier(conn, cfg.SubjectPrefix, logger)
	n.conn = conn
	return n, nil
}

func newNotifier(pub publisher, prefix string, logger *zerolog.Logger) *NATSNotifier {
	return &NATSNotifier{pub: pub, prefix: prefix, log: logger}
}

func (n *NATSNotifier) Subject(jobID string) string { return n.prefix + "." + jobID }

// Publish is fire-and-forget; delivery is not confirmed and ordering across
// subjects is not guaranteed.
func (n *NATSNotifier) Publish(ctx context.Context, job *model.BatchJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(NewProgressEvent(job))
	if err != nil {
		return err
	}
	if err := n.pub.Publish(n.Subject(job.ID), data); err != nil {
		return fmt.Errorf("publish progress: %w", err)
	}
	return nil
}

func (n *NATSNotifier) Healthy() bool {
	return n != nil && n.conn != nil && n.conn.Status() == nats.CONNECTED
}

func (n *NATSNotifier) Close() {
	if n == nil || n.conn == nil {
		return
	}
	n.log.Info().Msg("closing NATS connection")
	_ = n.conn.Drain()
	n.conn.Close()
}

// NoopNotifier drops every event.
type NoopNotifier struct{}

func (NoopNotifier) Publish(ctx context.Context, job *model.BatchJob) error { return nil }
