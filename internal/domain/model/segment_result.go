package model

import "encoding/json"

// Outcome is either Success or Failure. The unexported marker method keeps
// the set closed to this package.
type Outcome interface {
	isOutcome()
}

// Success carries the stored artifact for a segment.
type Success struct {
	ArtifactRef string
	Voice       VoiceOptions
}

// Failure carries a human readable reason.
type Failure struct {
	Message string
}

func (Success) isOutcome() {}
func (Failure) isOutcome() {}

// SegmentResult is the outcome of processing one Segment. It is created once
// and never mutated afterwards.
type SegmentResult struct {
	Index       int
	TextPreview string
	Outcome     Outcome
}

func NewSuccessResult(seg Segment, ref string, voice VoiceOptions) SegmentResult {
	return SegmentResult{
		Index:       seg.Index,
		TextPreview: Preview(seg.Text),
		Outcome:     Success{ArtifactRef: ref, Voice: voice},
	}
}

func NewFailureResult(seg Segment, message string) SegmentResult {
	return SegmentResult{
		Index:       seg.Index,
		TextPreview: Preview(seg.Text),
		Outcome:     Failure{Message: message},
	}
}

func (r SegmentResult) Succeeded() bool {
	_, ok := r.Outcome.(Success)
	return ok
}

type segmentResultJSON struct {
	Index       int    `json:"index"`
	TextPreview string `json:"text_preview"`
	Success     bool   `json:"success"`
	ArtifactRef string `json:"artifact_ref,omitempty"`
	Voice       string `json:"voice,omitempty"`
	Model       string `json:"model,omitempty"`
	Error       string `json:"error,omitempty"`
}

// MarshalJSON flattens the outcome into the shape the status endpoint returns.
func (r SegmentResult) MarshalJSON() ([]byte, error) {
	out := segmentResultJSON{Index: r.Index, TextPreview: r.TextPreview}
	switch o := r.Outcome.(type) {
	case Success:
		out.Success = true
		out.ArtifactRef = o.ArtifactRef
		out.Voice = o.Voice.Voice
		out.Model = o.Voice.Model
	case Failure:
		out.Error = o.Message
	}
	return json.Marshal(out)
}
