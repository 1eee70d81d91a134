package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// HistoryConfig holds configuration for the history command.
type HistoryConfig struct {
	RunID    string
	Journal  string
	PGDSN    string
	ChainID  string
	LogLevel string
}

// LoadHistory merges config file, environment variables, and flags into HistoryConfig.
func LoadHistory(cfgFile string, flags *pflag.FlagSet) (HistoryConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("journal", "./data/steps.jsonl")
		v.SetDefault("network", "localterra")
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return HistoryConfig{}, err
	}

	chainID := v.GetString("chain-id")
	if chainID == "" {
		if network, ok := networks[v.GetString("network")]; ok {
			chainID = network.ChainID
		}
	}

	return HistoryConfig{
		RunID:    v.GetString("run-id"),
		Journal:  v.GetString("journal"),
		PGDSN:    v.GetString("pg-dsn"),
		ChainID:  chainID,
		LogLevel: v.GetString("log-level"),
	}, nil
}
