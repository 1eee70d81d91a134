package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stableswapDeployer/internal/config"
	"stableswapDeployer/internal/model"
	"stableswapDeployer/internal/storage"
	"stableswapDeployer/internal/storage/postgres"
)

func runHistory(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadHistory(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, "")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var records []model.StepRecord
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		runID := cfg.RunID
		if runID == "" {
			latest, ok, err := store.LatestRun(ctx, cfg.ChainID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no runs recorded for %s", cfg.ChainID)
			}
			runID = latest
		}
		logger.Info("history from postgres", zap.String("run_id", runID), zap.String("chain_id", cfg.ChainID))
		if records, err = store.LoadSteps(ctx, runID); err != nil {
			return err
		}
	} else {
		logger.Info("history from journal", zap.String("journal", cfg.Journal), zap.String("run_id", cfg.RunID))
		if records, err = storage.NewJsonlStorage(cfg.Journal).ReadRecords(cfg.RunID); err != nil {
			return err
		}
	}

	if len(records) == 0 {
		return fmt.Errorf("no steps recorded")
	}
	return printJSON(records)
}
