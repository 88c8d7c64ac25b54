package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/inkguard/inkguard/pkg/config"
	"github.com/spf13/cobra"
)

func newAuthCmd(root *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the language model API key in the OS keyring",
	}

	var key string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API key (from --key or the first line of stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading api key from stdin: %w", err)
				}
				key = strings.TrimSpace(line)
			}
			if err := config.StoreAPIKey(key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key stored in keyring")
			return nil
		},
	}
	setCmd.Flags().StringVar(&key, "key", "", "API key to store")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show where the API key will be read from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			stored, err := config.HasStoredAPIKey()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case cfg.LLM.APIKey != "":
				fmt.Fprintln(out, "API key: set in config or INKGUARD_LLM_API_KEY")
			case stored:
				fmt.Fprintln(out, "API key: stored in keyring")
			default:
				fmt.Fprintln(out, "API key: not configured")
			}
			if cfg.LLM.APIKey != "" && stored {
				fmt.Fprintln(out, "  (a keyring entry also exists but is shadowed)")
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the API key from the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteAPIKey(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key removed from keyring")
			return nil
		},
	}

	cmd.AddCommand(setCmd, statusCmd, deleteCmd)
	return cmd
}
