package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"stableswapDeployer/internal/terraswap"
	"stableswapDeployer/internal/wallet"
	"stableswapDeployer/internal/workflow"
)

const envPrefix = "DEPLOYER"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Network string
	LCDURL  string
	ChainID string
	Timeout time.Duration

	Signer wallet.SignerConfig
	Memo   string

	Scenario workflow.Scenario

	Manifest        string
	Resume          bool
	Journal         string
	PGDSN           string
	MetricsTextfile string

	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
	LogFile      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("network", "localterra")
		v.SetDefault("timeout", 60*time.Second)
		v.SetDefault("mnemonic-source", "env:"+envPrefix+"_MNEMONIC")
		v.SetDefault("hd-path", wallet.DefaultHDPath)
		v.SetDefault("prefix", wallet.DefaultPrefix)
		v.SetDefault("token-wasm", "./artifacts/terraswap_token.wasm")
		v.SetDefault("pool-wasm", "./artifacts/stableswap_pool.wasm")
		v.SetDefault("amplification", "60")
		v.SetDefault("pool-fee", "4")
		v.SetDefault("liquidity", []string{"100", "100", "50"})
		v.SetDefault("withdraw-amount", "10")
		v.SetDefault("withdraw-single-amount", "10")
		v.SetDefault("withdraw-single-index", 0)
		v.SetDefault("swap-offer-index", 0)
		v.SetDefault("swap-amount", "10")
		v.SetDefault("fee-gas", "10000000")
		v.SetDefault("fee-amount", "1500000uluna")
		v.SetDefault("swap-fee-gas", "1000000")
		v.SetDefault("swap-fee-amount", "150000uluna")
		v.SetDefault("manifest", "./data/manifest.json")
		v.SetDefault("journal", "./data/steps.jsonl")
		v.SetDefault("max-retries", 3)
		v.SetDefault("retry-backoff", 2*time.Second)
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return Config{}, err
	}

	network, err := resolveNetwork(v.GetString("network"), v.GetString("lcd"), v.GetString("chain-id"))
	if err != nil {
		return Config{}, err
	}

	scenario, err := loadScenario(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Network: network.Name,
		LCDURL:  network.LCDURL,
		ChainID: network.ChainID,
		Timeout: v.GetDuration("timeout"),
		Signer: wallet.SignerConfig{
			MnemonicSource: v.GetString("mnemonic-source"),
			Passphrase:     v.GetString("passphrase"),
			HDPath:         v.GetString("hd-path"),
			Prefix:         v.GetString("prefix"),
		},
		Memo:            v.GetString("memo"),
		Scenario:        scenario,
		Manifest:        v.GetString("manifest"),
		Resume:          v.GetBool("resume"),
		Journal:         v.GetString("journal"),
		PGDSN:           v.GetString("pg-dsn"),
		MetricsTextfile: v.GetString("metrics-textfile"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		LogLevel:        v.GetString("log-level"),
		LogFile:         v.GetString("log-file"),
	}

	return cfg, nil
}

func loadScenario(v *viper.Viper) (workflow.Scenario, error) {
	tokens := workflow.DefaultTokens()
	if v.IsSet("tokens") {
		tokens = nil
		if err := v.UnmarshalKey("tokens", &tokens); err != nil {
			return workflow.Scenario{}, fmt.Errorf("decode tokens: %w", err)
		}
	}

	defaultFee, err := parseFee(v.GetString("fee-gas"), v.GetString("fee-amount"))
	if err != nil {
		return workflow.Scenario{}, fmt.Errorf("fee: %w", err)
	}
	swapFee, err := parseFee(v.GetString("swap-fee-gas"), v.GetString("swap-fee-amount"))
	if err != nil {
		return workflow.Scenario{}, fmt.Errorf("swap fee: %w", err)
	}

	sc := workflow.Scenario{
		TokenWasm:            v.GetString("token-wasm"),
		PoolWasm:             v.GetString("pool-wasm"),
		Tokens:               tokens,
		Amplification:        v.GetString("amplification"),
		PoolFee:              v.GetString("pool-fee"),
		Liquidity:            getStringSlice(v, "liquidity"),
		WithdrawAmount:       v.GetString("withdraw-amount"),
		WithdrawSingleAmount: v.GetString("withdraw-single-amount"),
		WithdrawSingleIndex:  v.GetInt("withdraw-single-index"),
		SwapOfferIndex:       v.GetInt("swap-offer-index"),
		SwapAskIndex:         len(tokens) - 1,
		SwapAmount:           v.GetString("swap-amount"),
		Guards: workflow.Guards{
			Provide:        v.GetString("min-out-provide"),
			WithdrawSingle: v.GetString("min-out-withdraw-single"),
			Swap:           v.GetString("min-out-swap"),
		},
		Fees: workflow.Fees{Default: defaultFee, Swap: swapFee},
	}
	if v.IsSet("swap-ask-index") {
		sc.SwapAskIndex = v.GetInt("swap-ask-index")
	}
	if contract := v.GetString("init-hook-contract"); contract != "" {
		sc.InitHook = &terraswap.InitHook{ContractAddr: contract, Msg: v.GetString("init-hook-msg")}
	}
	return sc, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("deployer")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
