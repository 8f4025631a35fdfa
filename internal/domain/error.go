package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("entity already exists")

	// Batch request validation. All of them wrap ErrInvalidArgument so the
	// transport layer can map the whole family with a single errors.Is.
	ErrUnsupportedVoice   = fmt.Errorf("%w: unsupported voice", ErrInvalidArgument)
	ErrEmptyText          = fmt.Errorf("%w: text is empty", ErrInvalidArgument)
	ErrTooManySegments    = fmt.Errorf("%w: too many segments", ErrInvalidArgument)
	ErrUnknownSplitPolicy = fmt.Errorf("%w: unknown split policy", ErrInvalidArgument)

	// Job store inconsistencies.
	ErrDuplicateResult = errors.New("segment result already recorded")

	// Single-shot synthesis. The wrapped message is safe to show to callers.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// Archive retrieval.
	ErrJobNotFinished = errors.New("job has not finished")
	ErrNoArtifacts    = errors.New("job has no successful artifacts")
)
