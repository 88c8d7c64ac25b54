// Package main provides the inkguard CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOpts

	rootCmd := &cobra.Command{
		Use:   "inkguard",
		Short: "Counterfeit risk scoring for ink cartridge listings",
		Long: `Inkguard fuses a listing's star-rating distribution, its price against
manufacturer reference prices, and language-model judgments of its review
texts into a trust weight and an overall counterfeit-risk verdict.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: .inkguard/config.yaml in this or a parent directory)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newAssessCmd(&opts),
		newRunCmd(&opts),
		newProgressCmd(&opts),
		newExportCmd(&opts),
		newTableCmd(&opts),
		newAuthCmd(&opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the inkguard version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "inkguard %s\n", version)
		},
	}
}
