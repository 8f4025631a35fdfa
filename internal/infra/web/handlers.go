package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"qwen-tts-batch/internal/domain"
	"qwen-tts-batch/internal/domain/model"
	"qwen-tts-batch/internal/infra/logging"
	"qwen-tts-batch/internal/usecase"

	"github.com/go-chi/chi/v5"
)

// maxRequestBody bounds the JSON request bodies.
const maxRequestBody = 1 << 20

type createBatchRequest struct {
	Text        string `json:"text"`
	SplitPolicy string `json:"split_policy"`
	MaxLength   int    `json:"max_length"`
	Voice       string `json:"voice"`
	Model       string `json:"model"`
}

type createBatchResponse struct {
	JobID         string `json:"job_id"`
	TotalSegments int    `json:"total_segments"`
	Status        string `json:"status"`
	StatusURL     string `json:"status_url"`
	DownloadURL   string `json:"download_url"`
}

type jobResponse struct {
	JobID             string                `json:"job_id"`
	Status            model.JobStatus       `json:"status"`
	Voice             model.VoiceOptions    `json:"voice"`
	TotalSegments     int                   `json:"total_segments"`
	CompletedSegments int                   `json:"completed_segments"`
	FailedSegments    int                   `json:"failed_segments"`
	Progress          float64               `json:"progress_percentage"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Results           []model.SegmentResult `json:"results"`
}

func toJobResponse(j *model.BatchJob) jobResponse {
	results := j.Results
	if results == nil {
		results = []model.SegmentResult{}
	}
	return jobResponse{
		JobID:             j.ID,
		Status:            j.Status,
		Voice:             j.Voice,
		TotalSegments:     j.TotalSegments,
		CompletedSegments: j.CompletedSegments,
		FailedSegments:    j.FailedSegments,
		Progress:          j.Progress(),
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
		Results:           results,
	}
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := s.batchUC.CreateJob(r.Context(), usecase.CreateJobInput{
		Text:        req.Text,
		SplitPolicy: req.SplitPolicy,
		MaxLength:   req.MaxLength,
		Voice:       req.Voice,
		Model:       req.Model,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, createBatchResponse{
		JobID:         out.JobID,
		TotalSegments: out.TotalSegments,
		Status:        string(model.JobStatusPending),
		StatusURL:     "/api/v1/batch/" + out.JobID,
		DownloadURL:   "/api/v1/batch/" + out.JobID + "/download",
	})
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Model string `json:"model"`
}

type synthesizeResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	AudioURL    string      `json:"audio_url"`
	ArtifactRef string      `json:"artifact_ref"`
	Model       string      `json:"model"`
	VoiceInfo   model.Voice `json:"voice_info"`
	Duration    float64     `json:"duration"` // seconds
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := s.synthUC.SynthesizeOne(r.Context(), usecase.SynthesizeInput{
		Text:  req.Text,
		Voice: req.Voice,
		Model: req.Model,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, synthesizeResponse{
		Success:     true,
		Message:     "synthesis succeeded",
		AudioURL:    "/api/download/" + out.ArtifactRef,
		ArtifactRef: out.ArtifactRef,
		Model:       out.Options.Model,
		VoiceInfo:   out.Voice,
		Duration:    out.Elapsed.Seconds(),
	})
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	job, err := s.batchUC.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) handleDownloadBatch(w http.ResponseWriter, r *http.Request) {
	archive, err := s.batchUC.BuildArchive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer archive.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, archive.Name))
	w.Header().Set("Content-Length", strconv.FormatInt(archive.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, archive); err != nil {
		l := logging.With(r.Context(), s.log)
		l.Warn().Err(err).Str("archive", archive.Name).Msg("archive stream interrupted")
	}
}

func (s *Server) handleDownloadArtifact(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	data, err := s.artifacts.Load(r.Context(), ref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ref))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"voices": s.batchUC.Voices()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"version":            s.health.Version,
		"provider":           s.health.Provider,
		"api_key_configured": s.health.APIKeyConfigured,
		"timestamp":          time.Now().UTC(),
	})
}

// fail maps domain errors onto status codes and logs the unexpected ones.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTooManySegments):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrJobNotFinished):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoArtifacts):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSynthesisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
