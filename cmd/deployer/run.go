package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stableswapDeployer/internal/config"
	"stableswapDeployer/internal/wallet"
	"stableswapDeployer/internal/workflow"
)

type runSummary struct {
	workflow.Outcome
	FailedStep string `json:"failed_step,omitempty"`
	FailedKind string `json:"failed_kind,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runWorkflow(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.cfg.Scenario.Validate(); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}

	s.logger.Info("deployer start",
		zap.String("token_wasm", s.cfg.Scenario.TokenWasm),
		zap.String("pool_wasm", s.cfg.Scenario.PoolWasm),
		zap.Int("tokens", len(s.cfg.Scenario.Tokens)),
		zap.String("manifest", s.cfg.Manifest),
		zap.Bool("resume", s.cfg.Resume),
		zap.Int("max_retries", s.cfg.MaxRetries),
	)

	out, runErr := s.driver.Run(ctx)
	s.recorder.RunFinished(runErr == nil)

	summary := runSummary{Outcome: out}
	var stepErr *workflow.StepError
	if errors.As(runErr, &stepErr) {
		summary.FailedStep = stepErr.Step
		summary.FailedKind = string(stepErr.Kind)
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	if err := printJSON(summary); err != nil {
		return err
	}
	return runErr
}

func runAddress(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, "")
	if err != nil {
		return err
	}
	defer logger.Sync()

	key, err := wallet.Open(cfg.Signer)
	if err != nil {
		return err
	}
	defer key.Close()

	logger.Debug("derived key", zap.String("hd_path", cfg.Signer.HDPath), zap.String("prefix", cfg.Signer.Prefix))
	_, err = fmt.Fprintln(os.Stdout, key.Address())
	return err
}
