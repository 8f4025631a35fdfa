package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper is a periodic maintenance task. Sweep returns how many items it
// handled and the first error, if any.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Scheduler periodically runs a Sweeper.
type Scheduler struct {
	name     string
	interval time.Duration
	sweeper  Sweeper
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler that runs sweeper.Sweep every interval.
// If interval <= 0 it defaults to 1 minute.
func NewScheduler(name string, interval time.Duration, sweeper Sweeper, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	l := logger.With().Str("component", name).Logger()
	return &Scheduler{
		name:     name,
		interval: interval,
		sweeper:  sweeper,
		log:      &l,
		done:     make(chan struct{}),
	}
}

// Start begins the loop in a background goroutine. The first sweep runs
// immediately. Calling Start multiple times has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	s.runOnce()
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("scheduler context cancelled; stopping")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce bounds a single sweep to the interval.
func (s *Scheduler) runOnce() {
	runCtx, cancel := context.WithTimeout(s.ctx, s.interval)
	defer cancel()
	n, err := s.sweeper.Sweep(runCtx)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep error")
		return
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("sweep finished")
	}
}

// Stop cancels the scheduler and waits for the loop to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	// reset for potential restart
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("scheduler stopped")
}
