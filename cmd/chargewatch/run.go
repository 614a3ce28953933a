package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/chargewatch/internal/asana"
	"github.com/dshills/chargewatch/internal/config"
	"github.com/dshills/chargewatch/internal/mail"
	"github.com/dshills/chargewatch/internal/report"
	"github.com/dshills/chargewatch/internal/stripe"
)

type runFlags struct {
	configPath string
	dryRun     bool
	out        string
	verbose    bool
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one report run for the last completed week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "chargewatch.yaml", "Config file path")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Render the report but skip task and mail delivery")
	flags.StringVar(&f.out, "out", "", "Also write the CSV to this path")
	flags.BoolVar(&f.verbose, "verbose", false, "Human-readable debug logging")

	return cmd
}

func runReport(f *runFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return exitError(3, "%v", err)
	}

	logger, err := newLogger(f.verbose)
	if err != nil {
		return exitError(3, "logger init: %v", err)
	}
	defer logger.Sync()

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return exitError(3, "%v", err)
	}
	p.DryRun = f.dryRun
	p.CopyTo = f.out

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RunTimeout))
	defer cancel()

	out, err := p.Run(ctx)
	if err != nil {
		return exitError(1, "report run failed: %v", err)
	}

	window := fmt.Sprintf("%s to %s",
		out.WindowStart.Format("2006-01-02"), out.WindowEnd.Format("2006-01-02"))
	switch {
	case out.NoOp:
		fmt.Printf("no disputes %s; nothing delivered\n", window)
	case f.dryRun:
		fmt.Printf("dry run %s: %d dispute(s) scored, delivery skipped\n", window, out.Disputes)
	default:
		fmt.Printf("report %s: %d dispute(s), task %s, mailed to %s\n",
			window, out.Disputes, out.TaskID, cfg.Mail.To)
	}
	return nil
}

// buildPipeline wires the collaborators from config. Shared by run and serve.
func buildPipeline(cfg *config.Config, logger *zap.Logger) (*report.Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	stripeClient, err := stripe.New(stripe.Config{
		APIKey:    cfg.Stripe.APIKey,
		PageLimit: cfg.Stripe.PageLimit,
	})
	if err != nil {
		return nil, err
	}

	asanaClient, err := asana.New(asana.Config{
		Token:      cfg.Asana.Token,
		ProjectID:  cfg.Asana.ProjectID,
		AssigneeID: cfg.Asana.AssigneeID,
	})
	if err != nil {
		return nil, err
	}

	sender := &mail.Sender{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		To:       cfg.Mail.To,
		ReplyTo:  cfg.Mail.ReplyTo,
	}

	return &report.Pipeline{
		Disputes:     stripeClient,
		Tasks:        asanaClient,
		Mail:         sender,
		Log:          logger,
		Account:      cfg.AccountLabel,
		Location:     loc,
		Subject:      cfg.Mail.Subject,
		BodyTemplate: cfg.Mail.BodyTemplate,
		TaskDueDays:  cfg.Asana.DueInDays,
	}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
