package model

import (
	"time"
	"unicode/utf8"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transitions can happen.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// PreviewLength is the number of runes kept in SegmentResult.TextPreview.
const PreviewLength = 50

// Segment is one ordered slice of the source document.
type Segment struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// BatchJob is one batch synthesis request tracked as a unit of progress.
// Values handed out by the job store are snapshots; mutating them has no
// effect on the stored job.
type BatchJob struct {
	ID                string
	Status            JobStatus
	Voice             VoiceOptions
	TotalSegments     int
	CompletedSegments int
	FailedSegments    int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Results           []SegmentResult
}

// NewBatchJob returns a pending job with zero counters.
func NewBatchJob(id string, totalSegments int, voice VoiceOptions, now time.Time) *BatchJob {
	return &BatchJob{
		ID:            id,
		Status:        JobStatusPending,
		Voice:         voice,
		TotalSegments: totalSegments,
		CreatedAt:     now,
		UpdatedAt:     now,
		Results:       make([]SegmentResult, 0, totalSegments),
	}
}

// Reported is the number of segments that have an outcome, either way.
func (j *BatchJob) Reported() int { return j.CompletedSegments + j.FailedSegments }

// Progress returns (completed+failed)/total*100.
func (j *BatchJob) Progress() float64 {
	if j.TotalSegments <= 0 {
		return 0
	}
	return float64(j.Reported()) / float64(j.TotalSegments) * 100
}

// Apply appends r, bumps the matching counter and recomputes Status.
// The caller is responsible for serialization and for rejecting results
// once the job is terminal.
func (j *BatchJob) Apply(r SegmentResult, now time.Time) {
	j.Results = append(j.Results, r)
	if r.Succeeded() {
		j.CompletedSegments++
	} else {
		j.FailedSegments++
	}
	j.Status = j.rollup()
	j.UpdatedAt = now
}

// rollup: any failed segment marks the whole job failed once all segments reported.
func (j *BatchJob) rollup() JobStatus {
	if j.Reported() < j.TotalSegments {
		return JobStatusProcessing
	}
	if j.FailedSegments == 0 {
		return JobStatusCompleted
	}
	return JobStatusFailed
}

// Snapshot copies the job, including its results slice.
func (j *BatchJob) Snapshot() *BatchJob {
	cp := *j
	cp.Results = append([]SegmentResult(nil), j.Results...)
	return &cp
}

// SuccessfulResults returns the Success results in recorded order.
func (j *BatchJob) SuccessfulResults() []SegmentResult {
	out := make([]SegmentResult, 0, j.CompletedSegments)
	for _, r := range j.Results {
		if r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Preview truncates text to PreviewLength runes.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:PreviewLength]) + "..."
}
