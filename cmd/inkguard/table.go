package main

import (
	"encoding/json"
	"fmt"

	"github.com/inkguard/inkguard/pkg/scoring"
	"github.com/inkguard/inkguard/pkg/surface"
	"github.com/spf13/cobra"
)

type referenceTable struct {
	Rows       []scoring.ReferenceRow `json:"rows"`
	PageYields []scoring.PageYield    `json:"page_yields"`
}

func newTableCmd(root *rootOpts) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the reference price table and page yields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			engine, err := cfg.Scoring.Engine()
			if err != nil {
				return fmt.Errorf("building scoring engine: %w", err)
			}
			t := referenceTable{Rows: engine.Table().Rows(), PageYields: scoring.PageYields()}

			out := cmd.OutOrStdout()
			switch format {
			case "", "terminal", "text":
				return surface.RenderReferenceTable(out, t.Rows, t.PageYields)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(t)
			case "yaml":
				return surface.WriteYAML(out, t)
			default:
				return fmt.Errorf("unknown format %q (want terminal, json or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "terminal", "Output format: terminal, json or yaml")
	return cmd
}
