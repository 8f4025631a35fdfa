package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var _ Sweeper = (*StagingJanitor)(nil)

// StagingJanitor removes leftover temp files (archive staging, partial
// artifact writes) that a crashed or killed process never cleaned up.
type StagingJanitor struct {
	dir      string
	patterns []string
	ttl      time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

func NewStagingJanitor(dir string, patterns []string, ttl time.Duration, logger *zerolog.Logger) *StagingJanitor {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &StagingJanitor{dir: dir, patterns: patterns, ttl: ttl, now: time.Now, log: logger}
}

// Sweep deletes matching files whose mtime is older than ttl.
func (j *StagingJanitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.ttl)
	removed := 0
	var firstErr error

	for _, pattern := range j.patterns {
		matches, err := filepath.Glob(filepath.Join(j.dir, pattern))
		if err != nil {
			return removed, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return removed, err
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			removed++
			j.log.Debug().Str("path", path).Time("modified", info.ModTime()).Msg("removed stale staging file")
		}
	}
	return removed, firstErr
}
