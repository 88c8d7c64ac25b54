package main

import (
	"fmt"
	"os"

	"github.com/inkguard/inkguard/pkg/config"
	"github.com/inkguard/inkguard/pkg/logging"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootOpts holds the persistent flags shared by every command.
type rootOpts struct {
	configPath string
	logLevel   string
}

// loadConfig reads the config file named by --config, or the nearest
// .inkguard/config.yaml, and validates it.
func (o *rootOpts) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(wd)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger. It always writes to stderr so
// rendered reports on stdout stay clean.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*log.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
