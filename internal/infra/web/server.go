package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"qwen-tts-batch/internal/domain/ports/repository"
	"qwen-tts-batch/internal/infra/metrics"
	"qwen-tts-batch/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// HealthInfo is static data reported by GET /api/health.
type HealthInfo struct {
	Version          string
	Provider         string
	APIKeyConfigured bool
}

// Options control optional routes.
type Options struct {
	MetricsPath    string // empty disables /metrics
	RequestTimeout time.Duration
}

type Server struct {
	batchUC   usecase.BatchUseCase
	synthUC   usecase.SynthesisUseCase
	artifacts repository.ArtifactRepository
	health    HealthInfo
	opts      Options
	log       *zerolog.Logger

	srv *http.Server
}

func NewServer(
	batchUC usecase.BatchUseCase,
	synthUC usecase.SynthesisUseCase,
	artifacts repository.ArtifactRepository,
	health HealthInfo,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{
		batchUC:   batchUC,
		synthUC:   synthUC,
		artifacts: artifacts,
		health:    health,
		opts:      opts,
		log:       logger,
	}
}

// Routes builds the router. Archive downloads are streamed and single-shot
// synthesis carries its own timeout, so neither is bound by the request timeout.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.opts.RequestTimeout))
			r.Get("/health", s.handleHealth)
			r.Get("/voices", s.handleVoices)
			r.Post("/v1/batch", s.handleCreateBatch)
			r.Get("/v1/batch/{id}", s.handleGetBatch)
		})
		r.Post("/synthesize", s.handleSynthesize)
		r.Get("/v1/batch/{id}/download", s.handleDownloadBatch)
		r.Get("/download/{ref}", s.handleDownloadArtifact)
	})

	if s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, metrics.Handler())
	}
	return r
}

func (s *Server) Start(port int) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("HTTP server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
