package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/inkguard/inkguard/internal/pipeline"
	"github.com/inkguard/inkguard/internal/storage"
	"github.com/inkguard/inkguard/pkg/config"
	"github.com/inkguard/inkguard/pkg/dataset"
	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/extract/replay"
	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/inkguard/inkguard/pkg/logging"
	"github.com/inkguard/inkguard/pkg/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunSink struct {
	mu       sync.Mutex
	records  map[string]*pipeline.Enriched
	order    []string
	queued   []string
	created  map[string]int
	statuses map[string]string
	messages map[string]string
}

func newFakeRunSink() *fakeRunSink {
	return &fakeRunSink{
		records:  map[string]*pipeline.Enriched{},
		created:  map[string]int{},
		statuses: map[string]string{},
		messages: map[string]string{},
	}
}

func (f *fakeRunSink) Processed(context.Context) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]bool{}
	for id := range f.records {
		out[id] = true
	}
	return out, nil
}

func (f *fakeRunSink) Save(_ context.Context, e *pipeline.Enriched) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[e.ListingID]; !ok {
		f.order = append(f.order, e.ListingID)
	}
	f.records[e.ListingID] = e
	return nil
}

func (f *fakeRunSink) List(context.Context) ([]*pipeline.Enriched, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*pipeline.Enriched, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.records[id])
	}
	return out, nil
}

func (f *fakeRunSink) CreateRun(_ context.Context, runID string, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created[runID] = total
	f.statuses[runID] = pipeline.StatusRunning
	return nil
}

func (f *fakeRunSink) UpdateRunStatus(_ context.Context, runID, status string, errMsg *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[runID] = status
	if errMsg != nil {
		f.messages[runID] = *errMsg
	}
	return nil
}

func (f *fakeRunSink) QueueRun(_ context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, runID)
	f.statuses[runID] = pipeline.StatusQueued
	return nil
}

func testDataset(t *testing.T) dataset.Files {
	t.Helper()
	dir, err := filepath.Abs("../../testdata/dataset")
	require.NoError(t, err)
	return dataset.Files{
		Products: filepath.Join(dir, "products.json"),
		Reviews:  filepath.Join(dir, "reviews.json"),
		Sellers:  filepath.Join(dir, "sellers.json"),
	}
}

// recordedCollaborators serves every dataset listing from a replay store.
func recordedCollaborators(t *testing.T) func() (extract.StructureExtractor, extract.ReviewClassifier, error) {
	t.Helper()
	d, err := listing.LoadDecomposition("../../testdata/assess/decomposition.json")
	require.NoError(t, err)
	js, err := listing.LoadJudgments("../../testdata/assess/judgments.json")
	require.NoError(t, err)
	js = js[:2]
	js[0].ReviewNumber, js[1].ReviewNumber = 1, 2

	rs, err := replay.Open(t.TempDir())
	require.NoError(t, err)
	for _, e := range []replay.Entry{
		{ListingID: "MLB100", Title: "Cartucho HP 664 Preto Original", Decomposition: d, Judgments: js},
		{ListingID: "MLB200", Title: "Cartucho HP 664XL Tricolor", Decomposition: d},
		{ListingID: "MLB300", Title: "Kit 10 Cartuchos HP 664", Decomposition: d},
	} {
		require.NoError(t, rs.Record(e))
	}
	return func() (extract.StructureExtractor, extract.ReviewClassifier, error) {
		return rs, rs, nil
	}
}

func newTestRunner(t *testing.T, sink *fakeRunSink, files dataset.Files) (*batchRunner, *storage.LocalStorage, *int) {
	t.Helper()
	artifacts := storage.NewLocalStorage(t.TempDir())
	purged := 0
	return &batchRunner{
		ctx:           context.Background(),
		files:         files,
		pipeline:      config.PipelineConfig{Workers: 2},
		engine:        scoring.DefaultEngine(),
		sink:          sink,
		artifacts:     artifacts,
		collaborators: recordedCollaborators(t),
		onDone:        func() { purged++ },
		log:           logging.Discard(),
	}, artifacts, &purged
}

func TestBatchRunner_Trigger(t *testing.T) {
	sink := newFakeRunSink()
	r, artifacts, purged := newTestRunner(t, sink, testDataset(t))

	r.trigger("run-1")
	r.wait()

	assert.Equal(t, 3, sink.created["run-1"])
	assert.Equal(t, pipeline.StatusCompleted, sink.statuses["run-1"])
	assert.Len(t, sink.records, 3)
	for _, e := range sink.records {
		assert.Equal(t, "run-1", e.RunID)
	}
	assert.Equal(t, 1, *purged)

	_, err := artifacts.GetArtifact(context.Background(), "run-1", pipeline.ArtifactSummary)
	assert.NoError(t, err)
}

func TestBatchRunner_Scheduled(t *testing.T) {
	sink := newFakeRunSink()
	r, _, _ := newTestRunner(t, sink, testDataset(t))

	r.scheduled()

	require.Len(t, sink.queued, 1)
	runID := sink.queued[0]
	assert.NotEmpty(t, runID)
	assert.Equal(t, pipeline.StatusCompleted, sink.statuses[runID])
	assert.Len(t, sink.records, 3)
}

func TestBatchRunner_DatasetMissing(t *testing.T) {
	sink := newFakeRunSink()
	r, _, purged := newTestRunner(t, sink, dataset.Files{
		Products: filepath.Join(t.TempDir(), "missing.json"),
	})

	r.trigger("run-2")
	r.wait()

	assert.Equal(t, pipeline.StatusFailed, sink.statuses["run-2"])
	assert.Contains(t, sink.messages["run-2"], "loading products")
	assert.Empty(t, sink.records)
	assert.Equal(t, 0, *purged)
}

func TestNewScheduler(t *testing.T) {
	r, _, _ := newTestRunner(t, newFakeRunSink(), testDataset(t))
	logger := logging.Discard()

	c, err := newScheduler(config.ScheduleConfig{Cron: "0 3 * * *", Timezone: "America/Sao_Paulo"}, r, logger)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = newScheduler(config.ScheduleConfig{Cron: "not a schedule", Timezone: "UTC"}, r, logger)
	assert.Error(t, err)

	_, err = newScheduler(config.ScheduleConfig{Cron: "@daily", Timezone: "Mars/Olympus"}, r, logger)
	assert.Error(t, err)
}
