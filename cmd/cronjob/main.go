package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rental-marketplace-backend/internal/bootstrap"
	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/scheduler"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "cronjob",
		Short: "Scheduled jobs for the rental marketplace",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.dev.yaml", "Path to configuration file")

	rootCmd.AddCommand(runCmd(), onceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Marketplace Cronjob Runner...", "log_level", cfg.Log.Level)

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Start(context.WithoutCancel(ctx))
	return app, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the cron scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := setup(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			cronScheduler, err := scheduler.NewScheduler(app.Jobs)
			if err != nil {
				return fmt.Errorf("failed to initialize scheduler: %w", err)
			}
			cronScheduler.Start()
			logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.", "next_sweep", cronScheduler.NextRun())

			<-ctx.Done()

			logger.Info("Shutting down cronjob scheduler...")
			cronScheduler.Stop()
			logger.Info("Cronjob scheduler stopped. Goodbye!")
			return nil
		},
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once <job>",
		Short: "Run a single job and exit (sweep-overdue-payments, nightly)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			job, ok := app.Jobs.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown job %q (available: sweep-overdue-payments, nightly)", args[0])
			}
			logger.Info("Running job once", "job", args[0])
			job()
			logger.Info("Job execution completed", "job", args[0])
			return nil
		},
	}
}
