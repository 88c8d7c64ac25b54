package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/inkguard/inkguard/internal/notify"
	"github.com/inkguard/inkguard/internal/pipeline"
	"github.com/inkguard/inkguard/internal/storage"
	"github.com/inkguard/inkguard/internal/store"
	"github.com/inkguard/inkguard/pkg/config"
	"github.com/inkguard/inkguard/pkg/dataset"
	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/extract/replay"
	"github.com/inkguard/inkguard/pkg/surface"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type runOpts struct {
	workers    int
	limit      int
	resume     bool
	checkpoint string
	replayDir  string
	dryRun     bool
	jsonReport bool
}

func newRunCmd(root *rootOpts) *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Assess every listing in the dataset",
		Long: `Loads the marketplace dataset, checks its integrity, and runs every listing
through structure extraction, review classification and scoring. Each result
is checkpointed as soon as it is produced, so an interrupted run can continue
with --resume.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBatch(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, logger, opts)
		},
	}

	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent listings (default: pipeline.workers)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Process at most N listings (default: pipeline.limit)")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "Skip listings already in the checkpoint")
	cmd.Flags().StringVar(&opts.checkpoint, "checkpoint", "", "Checkpoint file, .db for SQLite or .jsonl (default: output.checkpoint)")
	cmd.Flags().StringVar(&opts.replayDir, "replay", "", "Serve extraction from recorded outputs instead of the language model")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Load and check the dataset without processing it")
	cmd.Flags().BoolVar(&opts.jsonReport, "json", false, "Print the run report as JSON instead of a summary")

	return cmd
}

func runBatch(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, logger log.FieldLogger, opts runOpts) error {
	fmt.Fprintf(stderr, "Step 1/3: Loading dataset from %s...\n", cfg.Data.Dir)
	ds, err := dataset.Load(cfg.Data.Files(), logger)
	if err != nil {
		return err
	}
	printDatasetCheck(stderr, ds)

	listings := ds.Listings()
	if opts.dryRun {
		fmt.Fprintf(stderr, "Dry run: %d listings ready for processing\n", len(listings))
		return nil
	}

	fmt.Fprintf(stderr, "Step 2/3: Preparing collaborators...\n")
	engine, err := cfg.Scoring.Engine()
	if err != nil {
		return fmt.Errorf("building scoring engine: %w", err)
	}

	extractor, classifier, err := collaborators(cfg, opts.replayDir)
	if err != nil {
		return err
	}

	checkpoint := firstNonEmpty(opts.checkpoint, cfg.Output.CheckpointPath())
	sink, err := store.Open(checkpoint)
	if err != nil {
		return err
	}
	defer sink.Close()

	artifacts, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating artifact storage: %w", err)
	}
	notifier, err := notify.New(cfg.Telegram, logger)
	if err != nil {
		return err
	}

	svc := pipeline.NewService(extractor, classifier, engine, sink, artifacts, notifier, logger)

	workers := cfg.Pipeline.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	limit := cfg.Pipeline.Limit
	if opts.limit > 0 {
		limit = opts.limit
	}

	fmt.Fprintf(stderr, "Step 3/3: Assessing %d listings with %d workers (checkpoint %s)...\n", len(listings), workers, checkpoint)
	report, err := svc.Run(ctx, listings, pipeline.Options{
		Workers:         workers,
		Limit:           limit,
		Resume:          opts.resume,
		CheckpointEvery: cfg.Pipeline.CheckpointEvery,
		MaxReviews:      cfg.Pipeline.MaxReviews,
	})
	if err != nil {
		if report != nil && report.Processed > 0 {
			fmt.Fprintf(stderr, "  %d listings checkpointed; rerun with --resume to continue\n", report.Processed)
		}
		return fmt.Errorf("run failed: %w", err)
	}

	if opts.jsonReport {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(stdout, "Run %s: %d processed, %d skipped, %d failed\n\n", report.RunID, report.Processed, report.Skipped, len(report.Failed))
	if err := surface.RenderSummary(stdout, report.Summary); err != nil {
		return err
	}
	for _, f := range report.Failed {
		fmt.Fprintf(stderr, "  failed %s: %s\n", f.ListingID, f.Error)
	}
	return nil
}

func collaborators(cfg *config.Config, replayDir string) (extract.StructureExtractor, extract.ReviewClassifier, error) {
	if replayDir != "" {
		rs, err := replay.Open(replayDir)
		if err != nil {
			return nil, nil, err
		}
		return rs, rs, nil
	}
	client, err := cfg.LLM.Client()
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

func printDatasetCheck(w io.Writer, ds *dataset.Dataset) {
	st := ds.Stats()
	fmt.Fprintf(w, "  %d products, %d review entries (%d with text, %d reviews), %d sellers\n",
		st.Products, st.ReviewEntries, st.ProductsWithText, st.IndividualReviews, st.Sellers)

	ir := ds.Integrity()
	if ir.Clean() {
		fmt.Fprintf(w, "  Integrity: ok\n")
		return
	}
	fmt.Fprintf(w, "  Integrity: %d without reviews, %d orphan reviews, %d without seller, %d unknown sellers\n",
		len(ir.MissingReviews), len(ir.OrphanReviews), len(ir.OrphanProducts), len(ir.UnknownSellers))
}

func newProgressCmd(root *rootOpts) *cobra.Command {
	var (
		checkpoint string
		total      int
	)

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show how far a checkpointed run has come",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			sink, err := store.Open(firstNonEmpty(checkpoint, cfg.Output.CheckpointPath()))
			if err != nil {
				return err
			}
			defer sink.Close()

			if total == 0 {
				// Best effort: the dataset may not be present where progress is checked.
				if ds, err := dataset.Load(cfg.Data.Files(), nil); err == nil {
					total = len(ds.Listings())
				}
			}

			p, err := pipeline.Progress(cmd.Context(), sink, total)
			if err != nil {
				return err
			}
			printProgress(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "Checkpoint file (default: output.checkpoint)")
	cmd.Flags().IntVar(&total, "total", 0, "Expected number of listings (default: count the dataset)")

	return cmd
}

func printProgress(w io.Writer, p pipeline.ProgressReport) {
	if p.Total > 0 {
		fmt.Fprintf(w, "Completed: %d/%d (%.1f%%), %d remaining\n", p.Completed, p.Total, p.Percent, p.Remaining)
	} else {
		fmt.Fprintf(w, "Completed: %d\n", p.Completed)
	}
	if len(p.Last) == 0 {
		return
	}
	fmt.Fprintln(w, "Last processed:")
	for _, e := range p.Last {
		verdict := "-"
		if e.Assessment != nil {
			verdict = string(e.Assessment.Verdict)
		}
		fmt.Fprintf(w, "  %s  %-12s %s\n", e.ListingID, verdict, e.Title)
	}
}

func newExportCmd(root *rootOpts) *cobra.Command {
	var (
		input  string
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export checkpointed listings that carry review text analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			sink, err := store.Open(firstNonEmpty(input, cfg.Output.CheckpointPath()))
			if err != nil {
				return err
			}
			defer sink.Close()

			records, err := sink.List(cmd.Context())
			if err != nil {
				return err
			}
			paths, n, err := pipeline.ExportAnalyzed(records, firstNonEmpty(outDir, cfg.Output.Dir), format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d listings\n", n, len(records))
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Checkpoint file (default: output.checkpoint)")
	cmd.Flags().StringVar(&format, "format", pipeline.ExportBoth, "Export format: json, jsonl or both")
	cmd.Flags().StringVar(&outDir, "output-dir", "", "Directory to write into (default: output.dir)")

	return cmd
}
