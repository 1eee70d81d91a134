package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stableswapDeployer/internal/chain"
	"stableswapDeployer/internal/config"
	"stableswapDeployer/internal/metrics"
	"stableswapDeployer/internal/storage"
	"stableswapDeployer/internal/storage/postgres"
	"stableswapDeployer/internal/wallet"
	"stableswapDeployer/internal/workflow"
)

// session holds everything a chain-touching command needs.
type session struct {
	cfg      config.Config
	logger   *zap.Logger
	key      *wallet.Key
	client   *chain.Client
	wallet   *chain.Wallet
	store    *postgres.Store
	recorder *metrics.Recorder
	driver   *workflow.Driver
}

// openSession loads config and connects. Standalone sessions submit single
// operations and neither read nor write the run manifest.
func openSession(ctx context.Context, cmd *cobra.Command, standalone bool) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if standalone {
		cfg.Manifest = ""
		cfg.Resume = false
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: logger, recorder: metrics.NewRecorder()}

	if err := s.open(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) open(ctx context.Context) error {
	cfg := s.cfg

	client, err := chain.NewClient(cfg.LCDURL, chain.WithTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("lcd client: %w", err)
	}
	s.client = client

	if err := client.CheckChainID(ctx, cfg.ChainID); err != nil {
		return err
	}

	key, err := wallet.Open(cfg.Signer)
	if err != nil {
		return fmt.Errorf("open signer: %w", err)
	}
	s.key = key

	w, err := chain.NewWallet(client, key, cfg.ChainID, cfg.Memo)
	if err != nil {
		return err
	}
	s.wallet = w

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Journal)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		s.store = store
		sinks = append(sinks, store)
	}

	s.driver = workflow.NewDriver(workflow.Config{
		Scenario:     cfg.Scenario,
		ManifestPath: cfg.Manifest,
		Resume:       cfg.Resume,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, w, sinks, s.recorder, s.logger)

	s.logger.Info("session open",
		zap.String("network", cfg.Network),
		zap.String("lcd", cfg.LCDURL),
		zap.String("chain_id", cfg.ChainID),
		zap.String("sender", key.Address()),
		zap.String("journal", cfg.Journal),
		zap.Bool("postgres", s.store != nil),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)
	return nil
}

// Close releases the signing key first, then connections, and flushes metrics.
func (s *session) Close() {
	if s.key != nil {
		s.key.Close()
		s.key = nil
	}
	if s.client != nil {
		s.client.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
	if s.recorder != nil {
		if err := s.recorder.WriteTextfile(s.cfg.MetricsTextfile); err != nil {
			s.logger.Warn("metrics textfile", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
