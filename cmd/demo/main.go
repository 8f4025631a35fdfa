package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"qwen-tts-batch/internal/domain/model"
	ttsAdapters "qwen-tts-batch/internal/infra/adapters/tts"
	"qwen-tts-batch/internal/infra/bus"
	"qwen-tts-batch/internal/infra/db/memory"
	"qwen-tts-batch/internal/infra/logging"
	"qwen-tts-batch/internal/infra/storage"
	"qwen-tts-batch/internal/infra/worker"
	"qwen-tts-batch/internal/usecase"
)

const sample = `# Chapter one
It was a bright cold day in April. The clocks were striking thirteen.

# Chapter two
Nothing was your own except the few cubic centimetres inside your skull.`

func main() {
	input := flag.String("in", "", "text file to synthesize (default: built-in sample)")
	out := flag.String("out", "batch_demo.zip", "where to write the archive")
	policy := flag.String("policy", "chapter", "paragraph|sentence|chapter")
	flag.Parse()

	text := sample
	if *input != "" {
		b, err := os.ReadFile(*input)
		if err != nil {
			log.Fatalf("read input: %v", err)
		}
		text = string(b)
	}

	// 1. Storage in a throwaway directory
	dir, err := os.MkdirTemp("", "tts-demo-*")
	if err != nil {
		log.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	logger := logging.Nop()
	artifacts, err := storage.NewFSArtifactRepo(dir, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	// 2. Runner with the silent synthesizer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := memory.NewBatchJobRepo(logger)
	synth := ttsAdapters.NewNoopAdapter(50 * time.Millisecond)
	runner := worker.NewBatchRunner(ctx, jobs, artifacts, synth, bus.NoopNotifier{}, 10*time.Second, logger)
	uc := usecase.NewBatchUseCase(jobs, runner, usecase.NewArchiver(jobs, artifacts, dir, logger), usecase.BatchOptions{
		Concurrency: 2,
		MaxSegments: 100,
	}, logger)

	// 3. Submit
	created, err := uc.CreateJob(ctx, usecase.CreateJobInput{Text: text, SplitPolicy: *policy})
	if err != nil {
		log.Fatalf("create job: %v", err)
	}
	log.Printf("job %s: %d segments", created.JobID, created.TotalSegments)

	// 4. Poll until terminal
	var job *model.BatchJob
	for {
		job, err = uc.GetJob(ctx, created.JobID)
		if err != nil {
			log.Fatalf("get job: %v", err)
		}
		log.Printf("status=%s progress=%.0f%%", job.Status, job.Progress())
		if job.Status.IsTerminal() {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	// 5. Download
	archive, err := uc.BuildArchive(ctx, created.JobID)
	if err != nil {
		log.Fatalf("archive: %v", err)
	}
	defer archive.Close()

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	if _, err := io.Copy(f, archive); err != nil {
		f.Close()
		log.Fatalf("write archive: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("close %s: %v", *out, err)
	}
	log.Printf("wrote %s (%d entries, %d bytes)", *out, archive.Entries, archive.Size)
}
