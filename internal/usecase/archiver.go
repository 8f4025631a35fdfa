package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/repository"
	"qwen-tts-batch/internal/infra/metrics"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
)

// StagingPattern is the temp file pattern used for archives being built.
// The staging janitor matches on it.
const StagingPattern = "tts-batch-*.zip"

const defaultArtifactFormat = "wav"

// Archive is a staged zip ready to stream. Close removes the staging file.
type Archive struct {
	Name    string
	Size    int64
	Entries int

	file *os.File
}

// Path is the staging file location.
func (a *Archive) Path() string { return a.file.Name() }

func (a *Archive) Read(p []byte) (int, error) { return a.file.Read(p) }

func (a *Archive) Close() error {
	cerr := a.file.Close()
	rerr := os.Remove(a.file.Name())
	if rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
		return rerr
	}
	return cerr
}

var _ io.ReadCloser = (*Archive)(nil)

// Archiver packages the successful artifacts of a finished job.
type Archiver struct {
	jobs       repository.BatchJobRepository
	artifacts  repository.ArtifactRepository
	stagingDir string
	log        *zerolog.Logger
}

func NewArchiver(jobs repository.BatchJobRepository, artifacts repository.ArtifactRepository, stagingDir string, logger *zerolog.Logger) *Archiver {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &Archiver{jobs: jobs, artifacts: artifacts, stagingDir: stagingDir, log: logger}
}

// Build stages a zip with one entry per successful segment, ordered by index.
func (a *Archiver) Build(ctx context.Context, jobID string) (*Archive, error) {
	job, err := a.jobs.Get(ctx, jobID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			metrics.IncArchive("error")
		}
		return nil, err
	}
	if !job.Status.IsTerminal() {
		metrics.IncArchive("not_finished")
		return nil, fmt.Errorf("%w: job %s is %s", domain.ErrJobNotFinished, jobID, job.Status)
	}

	results := job.SuccessfulResults()
	if len(results) == 0 {
		metrics.IncArchive("no_artifacts")
		return nil, fmt.Errorf("%w: job %s", domain.ErrNoArtifacts, jobID)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	archive, err := a.stage(ctx, jobID, results)
	if err != nil {
		metrics.IncArchive("error")
		a.log.Error().Err(err).Str("job_id", jobID).Msg("archive staging failed")
		return nil, err
	}
	metrics.IncArchive("ok")
	a.log.Info().
		Str("job_id", jobID).
		Int("entries", archive.Entries).
		Int64("bytes", archive.Size).
		Msg("archive built")
	return archive, nil
}

func (a *Archiver) stage(ctx context.Context, jobID string, results []model.SegmentResult) (_ *Archive, err error) {
	f, err := os.CreateTemp(a.stagingDir, StagingPattern)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	zw := zip.NewWriter(f)
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok := r.Outcome.(model.Success)
		data, err := a.artifacts.Load(ctx, ok.ArtifactRef)
		if err != nil {
			return nil, fmt.Errorf("load artifact for segment %d: %w", r.Index, err)
		}
		w, err := zw.Create(EntryName(r.Index, ok.Voice.Voice, ok.ArtifactRef))
		if err != nil {
			return nil, fmt.Errorf("add zip entry: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write zip entry: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}

	size, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("stat staging file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind staging file: %w", err)
	}

	return &Archive{
		Name:    fmt.Sprintf("batch_%s.zip", jobID),
		Size:    size,
		Entries: len(results),
		file:    f,
	}, nil
}

// EntryName is segment_{index:03d}_{voice}.{format}, the format taken from
// the artifact ref extension.
func EntryName(index int, voice, ref string) string {
	format := strings.TrimPrefix(path.Ext(ref), ".")
	if format == "" {
		format = defaultArtifactFormat
	}
	return fmt.Sprintf("segment_%03d_%s.%s", index, voice, format)
}
