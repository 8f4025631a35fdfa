package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ repository.ArtifactRepository = (*FSArtifactRepo)(nil)

// FSArtifactRepo writes one file per artifact under dir. The ref is the
// file name: tts_{voice}_{YYYYmmdd_HHMMSS}_{hex8}.{format}.
type FSArtifactRepo struct {
	dir string
	now func() time.Time
	log *zerolog.Logger
}

func NewFSArtifactRepo(dir string, logger *zerolog.Logger) (*FSArtifactRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &FSArtifactRepo{dir: dir, now: time.Now, log: logger}, nil
}

func (r *FSArtifactRepo) Dir() string { return r.dir }

func (r *FSArtifactRepo) Save(ctx context.Context, audio *model.Audio, voice model.VoiceOptions) (string, error) {
	if audio == nil || len(audio.Data) == 0 {
		return "", fmt.Errorf("%w: empty audio", domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	format := audio.Format
	if format == "" {
		format = "wav"
	}
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("tts_%s_%s_%s.%s", sanitize(voice.Voice), r.now().Format("20060102_150405"), hex, format)

	// Write under a temp name so a reader never sees a partial file.
	tmp, err := os.CreateTemp(r.dir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if _, err := tmp.Write(audio.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(r.dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("commit artifact: %w", err)
	}

	r.log.Debug().Str("ref", name).Int("bytes", len(audio.Data)).Str("source", audio.SourceURL).Msg("artifact stored")
	return name, nil
}

func (r *FSArtifactRepo) Load(ctx context.Context, ref string) ([]byte, error) {
	if !validRef(ref) {
		return nil, fmt.Errorf("%w: bad artifact ref %q", domain.ErrInvalidArgument, ref)
	}
	data, err := os.ReadFile(filepath.Join(r.dir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("artifact %s: %w", ref, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// validRef rejects anything that is not a plain file name inside dir.
func validRef(ref string) bool {
	return ref != "" && ref != "." && ref != ".." &&
		!strings.HasPrefix(ref, ".") &&
		filepath.Base(ref) == ref &&
		!strings.ContainsAny(ref, `/\`)
}

func sanitize(s string) string {
	if s == "" {
		return "voice"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, s)
}
