package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qwen-tts-batch/internal/config"
	"qwen-tts-batch/internal/domain/ports/adapter"
	"qwen-tts-batch/internal/domain/ports/repository"
	ttsAdapters "qwen-tts-batch/internal/infra/adapters/tts"
	"qwen-tts-batch/internal/infra/bus"
	"qwen-tts-batch/internal/infra/db/memory"
	"qwen-tts-batch/internal/infra/logging"
	"qwen-tts-batch/internal/infra/metrics"
	red "qwen-tts-batch/internal/infra/redis"
	"qwen-tts-batch/internal/infra/scheduler"
	"qwen-tts-batch/internal/infra/storage"
	"qwen-tts-batch/internal/infra/web"
	"qwen-tts-batch/internal/infra/worker"
	"qwen-tts-batch/internal/usecase"

	"github.com/rs/zerolog"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop synthesizer without keys)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("exiting")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	// Cancelling baseCtx abandons in-flight segments.
	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}
	if cfg.Metrics.Enabled {
		metrics.MustRegister()
		metrics.SetBuildInfo(version, commit, cfg.TTS.DefaultProvider)
	}

	// ---- Artifact storage ----
	var (
		artifacts   repository.ArtifactRepository
		sweepDirs   = map[string][]string{cfg.Storage.StagingDir: {usecase.StagingPattern}}
		redisClient red.RedisClient
	)
	switch cfg.Storage.Driver {
	case "redis":
		cli, err := red.NewClient(baseCtx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		redisClient = cli
		artifacts = red.NewArtifactRepo(cli, cfg.Redis.TTL)
		logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("artifacts stored in redis")
	default:
		fsRepo, err := storage.NewFSArtifactRepo(cfg.Storage.Dir, logger)
		if err != nil {
			return err
		}
		artifacts = fsRepo
		sweepDirs[fsRepo.Dir()] = append(sweepDirs[fsRepo.Dir()], ".partial-*")
		logger.Info().Str("dir", fsRepo.Dir()).Msg("artifacts stored on disk")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// ---- Synthesizer ----
	synth, err := ttsAdapters.NewFromConfig(baseCtx, cfg.TTS, logger)
	if err != nil {
		return fmt.Errorf("tts: %w", err)
	}

	// ---- Progress notifications ----
	var notifier adapter.ProgressNotifier = bus.NoopNotifier{}
	if cfg.Bus.URL != "" {
		n, err := bus.Connect(cfg.Bus, logger)
		if err != nil {
			// progress events are optional; polling still works
			logger.Warn().Err(err).Msg("nats unavailable, progress events disabled")
		} else {
			notifier = n
			defer n.Close()
		}
	}

	// ---- Core ----
	jobs := memory.NewBatchJobRepo(logger)
	runner := worker.NewBatchRunner(baseCtx, jobs, artifacts, synth, notifier, cfg.Batch.SegmentTimeout, logger)
	archiver := usecase.NewArchiver(jobs, artifacts, cfg.Storage.StagingDir, logger)
	batchUC := usecase.NewBatchUseCase(jobs, runner, archiver, usecase.BatchOptions{
		Concurrency:        cfg.Batch.Concurrency,
		MaxSegments:        cfg.Batch.MaxSegments,
		DefaultMaxLength:   cfg.Batch.DefaultMaxLength,
		MaxSegmentLength:   cfg.Batch.MaxSegmentLength,
		DefaultSplitPolicy: cfg.Batch.DefaultSplitPolicy,
		Dev:                cfg.Runtime.Dev,
	}, logger)

	synthUC := usecase.NewSynthesisUseCase(synth, artifacts, cfg.Batch.MaxSegmentLength, cfg.Batch.SegmentTimeout, logger)

	// ---- Staging janitor ----
	for dir, patterns := range sweepDirs {
		janitor := scheduler.NewStagingJanitor(dir, patterns, cfg.Storage.StagingTTL, logger)
		s := scheduler.NewScheduler("staging-janitor", cfg.Storage.StagingTTL/4, janitor, logger)
		s.Start(baseCtx)
		defer s.Stop()
	}

	// ---- HTTP ----
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	srv := web.NewServer(batchUC, synthUC, artifacts, web.HealthInfo{
		Version:          version,
		Provider:         cfg.TTS.DefaultProvider,
		APIKeyConfigured: apiKeyConfigured(cfg.TTS),
	}, web.Options{MetricsPath: metricsPath, RequestTimeout: cfg.TTS.RequestTimeout}, logger)

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Start(cfg.HTTP.Port) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case err := <-srvErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error().Err(err).Msg("http shutdown")
	}

	cancel()
	drained := make(chan struct{})
	go func() {
		runner.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("batch workers did not stop in time")
	}
	logger.Info().Msg("bye")
	return nil
}

func apiKeyConfigured(cfg config.TTSConfig) bool {
	switch cfg.DefaultProvider {
	case ttsAdapters.ProviderDashScope:
		return cfg.DashScopeKey != ""
	case ttsAdapters.ProviderOpenAI:
		return cfg.OpenAIKey != ""
	case ttsAdapters.ProviderGemini:
		return cfg.GeminiKey != ""
	default:
		return true
	}
}
