package main

import (
	"context"
	"fmt"
	"io"

	"github.com/inkguard/inkguard/internal/pipeline"
	"github.com/inkguard/inkguard/pkg/config"
	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/extract/replay"
	"github.com/inkguard/inkguard/pkg/listing"
	"github.com/inkguard/inkguard/pkg/scoring"
	"github.com/inkguard/inkguard/pkg/surface"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type assessOpts struct {
	listingPath       string
	decompositionPath string
	judgmentsPath     string
	replayDir         string
	useLLM            bool
	recordDir         string
	format            string
}

func newAssessCmd(root *rootOpts) *cobra.Command {
	var opts assessOpts

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess one listing",
		Long: `Scores a listing file. The bundle decomposition and review judgments come
from files (--decomposition, --judgments), from a directory of recorded
outputs (--replay), or from the configured language model (--llm).
Without any of them only the rating distribution is scored.`,
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
			return runAssess(cmd.Context(), cmd.OutOrStdout(), cfg, logger, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listingPath, "listing", "", "Listing JSON file (required)")
	cmd.Flags().StringVar(&opts.decompositionPath, "decomposition", "", "Bundle decomposition JSON file")
	cmd.Flags().StringVar(&opts.judgmentsPath, "judgments", "", "Review judgments JSON file")
	cmd.Flags().StringVar(&opts.replayDir, "replay", "", "Directory of recorded extraction outputs")
	cmd.Flags().BoolVar(&opts.useLLM, "llm", false, "Extract structure and judge reviews with the configured language model")
	cmd.Flags().StringVar(&opts.recordDir, "record", "", "With --llm, record the model outputs into this replay directory")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: terminal, json, yaml or markdown (default: output.format)")
	_ = cmd.MarkFlagRequired("listing")
	cmd.MarkFlagsMutuallyExclusive("replay", "llm")
	cmd.MarkFlagsMutuallyExclusive("replay", "decomposition")
	cmd.MarkFlagsMutuallyExclusive("llm", "decomposition")

	return cmd
}

func runAssess(ctx context.Context, out io.Writer, cfg *config.Config, logger log.FieldLogger, opts assessOpts) error {
	renderer, err := surface.ForFormat(firstNonEmpty(opts.format, cfg.Output.Format))
	if err != nil {
		return err
	}
	if opts.recordDir != "" && !opts.useLLM {
		return fmt.Errorf("--record requires --llm")
	}

	engine, err := cfg.Scoring.Engine()
	if err != nil {
		return fmt.Errorf("building scoring engine: %w", err)
	}

	listings, err := listing.LoadListings(opts.listingPath)
	if err != nil {
		return err
	}

	assess, err := assessor(cfg, engine, logger, opts)
	if err != nil {
		return err
	}

	for i, l := range listings {
		a, err := assess(ctx, l)
		if err != nil {
			return fmt.Errorf("assessing %s: %w", l.ID, err)
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := renderer.Render(out, a); err != nil {
			return fmt.Errorf("rendering: %w", err)
		}
	}
	return nil
}

type assessFunc func(ctx context.Context, l listing.Listing) (*scoring.Assessment, error)

// assessor picks where the decomposition and judgments come from.
func assessor(cfg *config.Config, engine *scoring.Engine, logger log.FieldLogger, opts assessOpts) (assessFunc, error) {
	var (
		extractor  extract.StructureExtractor
		classifier extract.ReviewClassifier
		recorder   *replay.Store
	)

	switch {
	case opts.replayDir != "":
		rs, err := replay.Open(opts.replayDir)
		if err != nil {
			return nil, err
		}
		extractor, classifier = rs, rs
	case opts.useLLM:
		client, err := cfg.LLM.Client()
		if err != nil {
			return nil, err
		}
		extractor, classifier = client, client
		if opts.recordDir != "" {
			rs, err := replay.Open(opts.recordDir)
			if err != nil {
				return nil, err
			}
			recorder = rs
		}
	default:
		return fileAssessor(engine, opts)
	}

	svc := pipeline.NewService(extractor, classifier, engine, nil, nil, nil, logger)
	return func(ctx context.Context, l listing.Listing) (*scoring.Assessment, error) {
		e, err := svc.ProcessListing(ctx, l)
		if err != nil {
			return nil, err
		}
		if recorder != nil {
			if err := recorder.Record(replay.Entry{
				ListingID:     l.ID,
				Title:         l.Title,
				Decomposition: e.Structure,
				Judgments:     e.Judgments,
			}); err != nil {
				return nil, err
			}
		}
		return e.Assessment, nil
	}, nil
}

func fileAssessor(engine *scoring.Engine, opts assessOpts) (assessFunc, error) {
	var (
		decomposition *listing.Decomposition
		judgments     []listing.ReviewJudgment
		err           error
	)
	if opts.decompositionPath != "" {
		if decomposition, err = listing.LoadDecomposition(opts.decompositionPath); err != nil {
			return nil, err
		}
	}
	if opts.judgmentsPath != "" {
		if judgments, err = listing.LoadJudgments(opts.judgmentsPath); err != nil {
			return nil, err
		}
	}
	return func(_ context.Context, l listing.Listing) (*scoring.Assessment, error) {
		return engine.Assess(scoring.Input{
			Listing:       l,
			Decomposition: decomposition,
			Judgments:     judgments,
		})
	}, nil
}
