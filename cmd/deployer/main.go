package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	root := &cobra.Command{
		Use:          "deployer",
		Short:        "Stable-swap pool deployer for Terra",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Store code, create tokens and pool, then exercise liquidity and swap",
		RunE:  runWorkflow,
	}
	addChainFlags(runCmd.Flags())
	addJournalFlags(runCmd.Flags())
	runCmd.Flags().String("token-wasm", "./artifacts/terraswap_token.wasm", "CW20 token wasm path")
	runCmd.Flags().String("pool-wasm", "./artifacts/stableswap_pool.wasm", "stable-swap pool wasm path")
	runCmd.Flags().String("amplification", "60", "pool amplification coefficient")
	runCmd.Flags().String("pool-fee", "4", "pool fee")
	runCmd.Flags().StringSlice("liquidity", []string{"100", "100", "50"}, "liquidity per token, in token order")
	runCmd.Flags().String("withdraw-amount", "10", "LP amount to withdraw proportionally")
	runCmd.Flags().String("withdraw-single-amount", "10", "LP amount to withdraw into one asset")
	runCmd.Flags().Int("withdraw-single-index", 0, "token index received by the single-asset withdraw")
	runCmd.Flags().Int("swap-offer-index", 0, "token index offered in the swap")
	runCmd.Flags().Int("swap-ask-index", 0, "token index asked in the swap (default last token)")
	runCmd.Flags().String("swap-amount", "10", "amount offered in the swap")
	runCmd.Flags().String("min-out-provide", "", "minimum LP tokens minted by provide (required)")
	runCmd.Flags().String("min-out-withdraw-single", "", "minimum asset returned by the single-asset withdraw (required)")
	runCmd.Flags().String("min-out-swap", "", "minimum ask amount returned by the swap (required)")
	runCmd.Flags().String("init-hook-contract", "", "contract called by the pool after instantiation")
	runCmd.Flags().String("init-hook-msg", "", "base64 message for the init hook")
	runCmd.Flags().Bool("resume", false, "skip steps already recorded in the manifest")
	runCmd.Flags().String("manifest", "./data/manifest.json", "manifest path for resuming runs")
	root.AddCommand(runCmd)

	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Print the address derived from the configured mnemonic",
		RunE:  runAddress,
	}
	addSignerFlags(addressCmd.Flags())
	addressCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(addressCmd)

	for _, cmd := range opCommands() {
		addChainFlags(cmd.Flags())
		addJournalFlags(cmd.Flags())
		root.AddCommand(cmd)
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded steps of a run",
		RunE:  runHistory,
	}
	historyCmd.Flags().String("run-id", "", "run id (default latest run in Postgres)")
	historyCmd.Flags().String("journal", "./data/steps.jsonl", "step journal JSONL path")
	historyCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	historyCmd.Flags().String("network", "localterra", "network preset")
	historyCmd.Flags().String("chain-id", "", "chain id")
	historyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(historyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSignerFlags(fs *pflag.FlagSet) {
	fs.String("mnemonic-source", "", "mnemonic location, env:NAME or file:PATH")
	fs.String("hd-path", "m/44'/330'/0'/0/0", "BIP-44 derivation path")
	fs.String("prefix", "terra", "bech32 account prefix")
}

func addChainFlags(fs *pflag.FlagSet) {
	addSignerFlags(fs)
	fs.String("network", "localterra", "network preset (localterra, bombay-12)")
	fs.String("lcd", "", "LCD URL, overrides the network preset")
	fs.String("chain-id", "", "chain id, overrides the network preset")
	fs.String("memo", "", "transaction memo")
	fs.Duration("timeout", 60*time.Second, "LCD request timeout")
	fs.String("fee-gas", "10000000", "gas limit")
	fs.String("fee-amount", "1500000uluna", "fee coins")
	fs.String("swap-fee-gas", "1000000", "gas limit for swaps")
	fs.String("swap-fee-amount", "150000uluna", "fee coins for swaps")
	fs.Int("max-retries", 3, "maximum retries of transient failures")
	fs.Duration("retry-backoff", 2*time.Second, "initial retry backoff")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-file", "", "also write logs to this file, rotated")
}

func addJournalFlags(fs *pflag.FlagSet) {
	fs.String("journal", "./data/steps.jsonl", "step journal JSONL path")
	fs.String("pg-dsn", "", "Postgres DSN for the deployment ledger")
	fs.String("metrics-textfile", "", "write Prometheus metrics to this file on exit")
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if file == "" {
		return logger, nil
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg.EncoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}),
		cfg.Level,
	)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
