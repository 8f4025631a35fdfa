//go:build !integration

package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestStagingJanitor_RemovesOnlyStaleMatches(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	touch(t, filepath.Join(dir, "tts-batch-1.zip"), old)
	touch(t, filepath.Join(dir, "tts-batch-2.zip"), now)
	touch(t, filepath.Join(dir, ".partial-9"), old)
	touch(t, filepath.Join(dir, "tts_Cherry_x.wav"), old)

	j := NewStagingJanitor(dir, []string{"tts-batch-*.zip", ".partial-*"}, time.Hour, nil)
	n, err := j.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed %d files, want 2", n)
	}

	for name, wantExists := range map[string]bool{
		"tts-batch-1.zip":  false,
		"tts-batch-2.zip":  true,
		".partial-9":       false,
		"tts_Cherry_x.wav": true,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != wantExists {
			t.Fatalf("%s exists=%v, want %v", name, exists, wantExists)
		}
	}
}

type countingSweeper struct{ n int32 }

func (c *countingSweeper) Sweep(ctx context.Context) (int, error) {
	atomic.AddInt32(&c.n, 1)
	return 0, nil
}

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	sw := &countingSweeper{}
	s := NewScheduler("test", 10*time.Millisecond, sw, nil)
	s.Start(context.Background())
	s.Start(context.Background()) // no-op
	time.Sleep(35 * time.Millisecond)
	s.Stop()
	s.Stop() // idempotent

	if got := atomic.LoadInt32(&sw.n); got < 2 {
		t.Fatalf("sweeps = %d, want at least 2", got)
	}
	after := atomic.LoadInt32(&sw.n)
	time.Sleep(25 * time.Millisecond)
	if atomic.LoadInt32(&sw.n) != after {
		t.Fatal("sweeper ran after Stop")
	}
}
