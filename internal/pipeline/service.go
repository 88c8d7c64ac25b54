// Package pipeline orchestrates batch assessment: structure extraction,
// review classification, scoring, checkpointing and result publication.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkguard/inkguard/internal/storage"
	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/inkguard/inkguard/pkg/logging"
	"github.com/inkguard/inkguard/pkg/scoring"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Run lifecycle states.
const (
	StatusQueued    = "QUEUED"
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Artifact names written per run.
const (
	ArtifactEnriched = "enriched.json"
	ArtifactSummary  = "summary.json"
)

// Sink persists enriched records as they are produced.
type Sink interface {
	Processed(ctx context.Context) (map[string]bool, error)
	Save(ctx context.Context, e *Enriched) error
	List(ctx context.Context) ([]*Enriched, error)
}

// RunTracker is implemented by sinks that also record run lifecycle.
type RunTracker interface {
	CreateRun(ctx context.Context, runID string, total int) error
	UpdateRunStatus(ctx context.Context, runID, status string, errMsg *string) error
}

// Notifier is told about listings that either risk axis flagged.
type Notifier interface {
	Notify(ctx context.Context, e *Enriched) error
}

// Options controls a batch run.
type Options struct {
	RunID           string // empty generates a new ID
	Workers         int    // concurrent listings; values below 1 mean 1
	Limit           int    // 0 processes every listing
	Resume          bool   // skip listings the sink already holds
	CheckpointEvery int    // log progress every N listings; 0 disables
	MaxReviews      int    // 0 classifies every review with text
}

// Failure is a listing the run could not process.
type Failure struct {
	ListingID string `json:"listing_id"`
	Error     string `json:"error"`
}

// RunReport describes a finished batch run.
type RunReport struct {
	RunID      string          `json:"run_id"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Total      int             `json:"total"`
	Skipped    int             `json:"skipped"`
	Processed  int             `json:"processed"`
	Failed     []Failure       `json:"failed"`
	Summary    scoring.Summary `json:"summary"`
}

// Service orchestrates the assessment pipeline.
type Service struct {
	extractor  extract.StructureExtractor
	classifier extract.ReviewClassifier
	engine     *scoring.Engine
	sink       Sink
	artifacts  storage.StorageClient
	notifier   Notifier
	log        log.FieldLogger

	now   func() time.Time
	newID func() string
}

// NewService creates a pipeline Service. artifacts, notifier and logger may
// be nil.
func NewService(extractor extract.StructureExtractor, classifier extract.ReviewClassifier, engine *scoring.Engine, sink Sink, artifacts storage.StorageClient, notifier Notifier, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		extractor:  extractor,
		classifier: classifier,
		engine:     engine,
		sink:       sink,
		artifacts:  artifacts,
		notifier:   notifier,
		log:        logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// ProcessListing runs one listing through the pipeline without persisting it.
func (s *Service) ProcessListing(ctx context.Context, l listing.Listing) (*Enriched, error) {
	return s.process(ctx, l, 0)
}

func (s *Service) process(ctx context.Context, l listing.Listing, maxReviews int) (*Enriched, error) {
	structure, err := s.extractor.ExtractStructure(ctx, l.Title, l.Description)
	if err != nil {
		return nil, fmt.Errorf("extract structure: %w", err)
	}
	if structure == nil {
		return nil, fmt.Errorf("extract structure: %w", extract.ErrEmptyResponse)
	}
	expected := scoring.ExpectedPagesFor(structure)

	reviews := l.ReviewsWithText()
	if maxReviews > 0 && len(reviews) > maxReviews {
		reviews = reviews[:maxReviews]
	}

	rc := extract.ReviewContext{
		ListingID:     l.ID,
		Title:         l.Title,
		Model:         structure.ModelPrimary,
		IsXL:          structure.IsXL,
		ExpectedPages: expected,
		Price:         l.Price,
	}
	if l.Seller != nil {
		rc.Seller = l.Seller.Nickname
	}

	judgments, err := extract.ClassifyAll(ctx, s.classifier, reviews, rc)
	if err != nil {
		return nil, fmt.Errorf("classify reviews: %w", err)
	}

	assessment, err := s.engine.Assess(scoring.Input{
		Listing:       l,
		Decomposition: structure,
		Judgments:     judgments,
	})
	if err != nil {
		return nil, fmt.Errorf("assess: %w", err)
	}

	return &Enriched{
		ListingID:     l.ID,
		Title:         l.Title,
		Link:          l.Link,
		ImageURL:      l.ImageURL,
		FreeShipping:  l.FreeShipping,
		Price:         l.Price,
		Description:   truncate(l.Description, MaxDescriptionChars),
		Seller:        l.Seller,
		Structure:     structure,
		ExpectedPages: expected,
		Judgments:     judgments,
		Assessment:    assessment,
		ProcessedAt:   s.now().UTC(),
	}, nil
}

// Run processes listings concurrently, saving each result to the sink as it
// completes. Per-listing failures are collected in the report; the run only
// aborts on context cancellation or a sink error.
func (s *Service) Run(ctx context.Context, listings []listing.Listing, opts Options) (report *RunReport, err error) {
	runID := opts.RunID
	if runID == "" {
		runID = s.newID()
	}
	report = &RunReport{
		RunID:     runID,
		Status:    StatusRunning,
		StartedAt: s.now().UTC(),
		Failed:    []Failure{},
	}
	logger := s.log.WithField("run_id", report.RunID)

	if opts.Limit > 0 && len(listings) > opts.Limit {
		listings = listings[:opts.Limit]
	}
	report.Total = len(listings)

	tracker, _ := s.sink.(RunTracker)
	if tracker != nil {
		if err := tracker.CreateRun(ctx, report.RunID, report.Total); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
		defer func() {
			status, msg := StatusCompleted, (*string)(nil)
			if err != nil {
				status = StatusFailed
				m := err.Error()
				msg = &m
			}
			// The run context may already be cancelled.
			if uerr := tracker.UpdateRunStatus(context.WithoutCancel(ctx), report.RunID, status, msg); uerr != nil {
				logger.WithError(uerr).Warn("failed to update run status")
			}
		}()
	}
	defer func() {
		report.FinishedAt = s.now().UTC()
		if err != nil {
			report.Status = StatusFailed
		}
	}()

	pending := listings
	if opts.Resume {
		done, err := s.sink.Processed(ctx)
		if err != nil {
			return report, fmt.Errorf("load checkpoint: %w", err)
		}
		pending = make([]listing.Listing, 0, len(listings))
		for _, l := range listings {
			if done[l.ID] {
				report.Skipped++
				continue
			}
			pending = append(pending, l)
		}
		logger.WithFields(log.Fields{"skipped": report.Skipped, "remaining": len(pending)}).Info("resuming from checkpoint")
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, l := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := s.now()
			entry := logger.WithField("listing_id", l.ID)

			e, err := s.process(gctx, l, opts.MaxReviews)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				entry.WithError(err).Warn("listing failed")
				mu.Lock()
				report.Failed = append(report.Failed, Failure{ListingID: l.ID, Error: err.Error()})
				mu.Unlock()
				return nil
			}

			e.RunID = report.RunID
			if err := s.sink.Save(gctx, e); err != nil {
				return fmt.Errorf("save %s: %w", l.ID, err)
			}

			if s.notifier != nil && e.Alertable() {
				if err := s.notifier.Notify(gctx, e); err != nil {
					entry.WithError(err).Warn("notification failed")
				}
			}

			mu.Lock()
			report.Processed++
			n := report.Processed
			mu.Unlock()

			entry.WithFields(log.Fields{
				"verdict":     e.Assessment.Verdict,
				"duration_ms": s.now().Sub(start).Milliseconds(),
			}).Debug("listing assessed")
			if opts.CheckpointEvery > 0 && n%opts.CheckpointEvery == 0 {
				logger.WithFields(log.Fields{"processed": n, "pending": len(pending)}).Info("checkpoint")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].ListingID < report.Failed[j].ListingID })

	all, err := s.sink.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list results: %w", err)
	}
	report.Summary = scoring.Summarize(Assessments(all))
	report.Status = StatusCompleted
	report.FinishedAt = s.now().UTC()

	if err := s.publish(ctx, report, all); err != nil {
		return report, err
	}

	logger.WithFields(log.Fields{
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"failed":    len(report.Failed),
	}).Info("run completed")
	return report, nil
}

func (s *Service) publish(ctx context.Context, report *RunReport, all []*Enriched) error {
	if s.artifacts == nil {
		return nil
	}
	if all == nil {
		all = []*Enriched{}
	}

	enriched, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal enriched: %w", err)
	}
	if err := s.artifacts.PutArtifact(ctx, report.RunID, ArtifactEnriched, enriched); err != nil {
		return fmt.Errorf("put enriched artifact: %w", err)
	}

	summary, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := s.artifacts.PutArtifact(ctx, report.RunID, ArtifactSummary, summary); err != nil {
		return fmt.Errorf("put summary artifact: %w", err)
	}
	return nil
}
