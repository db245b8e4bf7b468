package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"astro-server/internal/shared/config"
	"astro-server/internal/shared/database"
	"astro-server/internal/shared/logger"
	"astro-server/internal/star"

	"github.com/urfave/cli/v3"
)

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "dedupe",
		Usage: "Remove stars that share a name, keeping the lowest ID of each",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to an env file with database settings",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be deleted without committing",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDedupe(ctx, stdout, cmd.String("env-file"), cmd.Bool("dry-run"))
		},
	}
}

func runDedupe(ctx context.Context, stdout io.Writer, envFile string, dryRun bool) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, cfg.Logging)
	slog.SetDefault(log)

	db, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		return err
	}

	reconciler := star.NewReconciler(db, star.NewRepository(db, log), log)
	report, err := reconciler.Run(ctx, star.RunOptions{DryRun: dryRun})
	if err != nil {
		return fmt.Errorf("duplicate removal failed, no rows were deleted: %w", err)
	}

	_, err = report.WriteTo(stdout)
	return err
}
