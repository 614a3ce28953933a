package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/chargewatch/internal/config"
)

type serveFlags struct {
	configPath string
	verbose    bool
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run report generation on the configured schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "chargewatch.yaml", "Config file path")
	flags.BoolVar(&f.verbose, "verbose", false, "Human-readable debug logging")

	return cmd
}

func runServe(f *serveFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return exitError(3, "%v", err)
	}

	logger, err := newLogger(f.verbose)
	if err != nil {
		return exitError(3, "logger init: %v", err)
	}
	defer logger.Sync()

	pipeline, err := buildPipeline(cfg, logger)
	if err != nil {
		return exitError(3, "%v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return exitError(3, "%v", err)
	}
	sched, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return exitError(3, "invalid schedule %q: %v", cfg.Schedule, err)
	}

	// Runs are assumed non-overlapping; if a run outlasts the schedule
	// interval the next trigger is skipped rather than stacked.
	var inProgress atomic.Bool
	runner := cron.New(cron.WithLocation(loc))
	runner.Schedule(sched, cron.FuncJob(func() {
		if !inProgress.CompareAndSwap(false, true) {
			logger.Warn("previous run still in progress, skipping trigger")
			return
		}
		defer inProgress.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RunTimeout))
		defer cancel()
		if _, err := pipeline.Run(ctx); err != nil {
			// Logged and dropped: the process stays up for the next trigger.
			logger.Error("scheduled run failed", zap.Error(err))
		}
	}))

	runner.Start()
	logger.Info("scheduler started",
		zap.String("schedule", cfg.Schedule),
		zap.String("timezone", cfg.Timezone),
		zap.String("account", cfg.AccountLabel))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	// Stop returns once any in-flight run has finished.
	<-runner.Stop().Done()
	return nil
}
