// Command inkguardd is the inkguard platform service. It serves the REST
// API, runs scheduled batch assessments and stores results in Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/inkguard/inkguard/internal/api"
	"github.com/inkguard/inkguard/internal/notify"
	"github.com/inkguard/inkguard/internal/platform"
	"github.com/inkguard/inkguard/internal/storage"
	"github.com/inkguard/inkguard/internal/store"
	"github.com/inkguard/inkguard/pkg/config"
	"github.com/inkguard/inkguard/pkg/extract"
	"github.com/inkguard/inkguard/pkg/logging"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "inkguardd",
		Short:         "inkguard API server and batch scheduler",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", os.Getenv("INKGUARD_CONFIG"), "Config file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}

	engine, err := cfg.Scoring.Engine()
	if err != nil {
		return fmt.Errorf("building scoring engine: %w", err)
	}

	db, err := store.OpenPostgres(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := platform.AutoMigrate(db.DB()); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	artifacts, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating artifact storage: %w", err)
	}
	notifier, err := notify.New(cfg.Telegram, logger)
	if err != nil {
		return err
	}

	cache := api.NewAssessmentCache(cfg.Server.CacheSize)
	runner := &batchRunner{
		ctx:       ctx,
		files:     cfg.Data.Files(),
		pipeline:  cfg.Pipeline,
		engine:    engine,
		sink:      db,
		artifacts: artifacts,
		notifier:  notifier,
		collaborators: func() (extract.StructureExtractor, extract.ReviewClassifier, error) {
			client, err := cfg.LLM.Client()
			if err != nil {
				return nil, nil, err
			}
			return client, client, nil
		},
		onDone: cache.Purge,
		log:    logger,
	}
	defer runner.wait()

	if cfg.Schedule.Cron != "" {
		c, err := newScheduler(cfg.Schedule, runner, logger)
		if err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		logger.WithFields(log.Fields{"cron": cfg.Schedule.Cron, "timezone": cfg.Schedule.Timezone}).Info("scheduled batch runs enabled")
	}

	handler := api.NewHandler(engine, db, db, runner.trigger, cache, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.CORS(cfg.Server.CORSOrigins)(api.APIKeyAuth(cfg.Server.APIKey)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("starting inkguardd")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown error")
	}
	return nil
}

// newScheduler builds the cron scheduler that queues a batch run on every
// tick. Overlapping ticks are skipped while a run is in progress.
func newScheduler(sc config.ScheduleConfig, runner *batchRunner, logger log.FieldLogger) (*cron.Cron, error) {
	loc, err := time.LoadLocation(sc.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	cl := cron.PrintfLogger(logger)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(sc.Cron, runner.scheduled); err != nil {
		return nil, fmt.Errorf("parsing schedule: %w", err)
	}
	return c, nil
}
