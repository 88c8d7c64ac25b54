package main

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/inkguard/inkguard/internal/pipeline"
	"github.com/inkguard/inkguard/internal/storage"
	"github.com/inkguard/inkguard/pkg/config"
	"github.com/inkguard/inkguard/pkg/dataset"
	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/scoring"
	log "github.com/sirupsen/logrus"
)

// runSink stores results and tracks the run lifecycle.
type runSink interface {
	pipeline.Sink
	pipeline.RunTracker
	QueueRun(ctx context.Context, runID string) error
}

// batchRunner executes dataset runs in the background, one at a time.
type batchRunner struct {
	ctx           context.Context // daemon lifetime; cancelling it stops runs
	files         dataset.Files
	pipeline      config.PipelineConfig
	engine        *scoring.Engine
	sink          runSink
	artifacts     storage.StorageClient
	notifier      pipeline.Notifier
	collaborators func() (extract.StructureExtractor, extract.ReviewClassifier, error)
	onDone        func()
	log           log.FieldLogger

	mu sync.Mutex
	wg sync.WaitGroup
}

// trigger starts a queued run in the background.
func (r *batchRunner) trigger(runID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(runID)
	}()
}

// scheduled queues and runs a batch synchronously. The cron scheduler calls it.
func (r *batchRunner) scheduled() {
	runID := uuid.NewString()
	if err := r.sink.QueueRun(r.ctx, runID); err != nil {
		r.log.WithError(err).Error("queue scheduled run failed")
		return
	}
	r.wg.Add(1)
	defer r.wg.Done()
	r.execute(runID)
}

func (r *batchRunner) wait() {
	r.wg.Wait()
}

func (r *batchRunner) execute(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := r.log.WithField("run_id", runID)

	ds, err := dataset.Load(r.files, logger)
	if err != nil {
		r.fail(logger, runID, err)
		return
	}
	extractor, classifier, err := r.collaborators()
	if err != nil {
		r.fail(logger, runID, err)
		return
	}

	svc := pipeline.NewService(extractor, classifier, r.engine, r.sink, r.artifacts, r.notifier, logger)
	report, err := svc.Run(r.ctx, ds.Listings(), pipeline.Options{
		RunID:           runID,
		Workers:         r.pipeline.Workers,
		Limit:           r.pipeline.Limit,
		CheckpointEvery: r.pipeline.CheckpointEvery,
		MaxReviews:      r.pipeline.MaxReviews,
	})
	if r.onDone != nil {
		r.onDone()
	}
	if err != nil {
		logger.WithError(err).Error("batch run failed")
		return
	}
	logger.WithFields(log.Fields{
		"processed": report.Processed,
		"failed":    len(report.Failed),
	}).Info("batch run finished")
}

// fail marks a run failed before the pipeline took it over.
func (r *batchRunner) fail(logger log.FieldLogger, runID string, err error) {
	logger.WithError(err).Error("batch run could not start")
	msg := err.Error()
	if uerr := r.sink.UpdateRunStatus(context.WithoutCancel(r.ctx), runID, pipeline.StatusFailed, &msg); uerr != nil {
		logger.WithError(uerr).Warn("failed to update run status")
	}
}
