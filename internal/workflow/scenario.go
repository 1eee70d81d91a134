package workflow

import (
	"fmt"

	"stableswapDeployer/internal/model"
	"stableswapDeployer/internal/terraswap"
)

// TokenSpec describes one CW20 token minted to the sender.
type TokenSpec struct {
	Symbol   string `mapstructure:"symbol" json:"symbol"`
	Name     string `mapstructure:"name" json:"name"`
	Decimals uint8  `mapstructure:"decimals" json:"decimals"`
	Supply   string `mapstructure:"supply" json:"supply"`
}

// Guards are the minimum-output amounts sent with each price-sensitive step.
// They have no defaults.
type Guards struct {
	Provide        string `mapstructure:"provide"`
	WithdrawSingle string `mapstructure:"withdraw-single"`
	Swap           string `mapstructure:"swap"`
}

// Fees used for the submitted transactions.
type Fees struct {
	Default model.Fee
	Swap    model.Fee
}

// Scenario is the end-to-end provisioning run.
type Scenario struct {
	TokenWasm string
	PoolWasm  string

	Tokens        []TokenSpec
	Amplification string
	PoolFee       string
	InitHook      *terraswap.InitHook

	// Liquidity holds one amount per token, in token order.
	Liquidity []string

	WithdrawAmount       string
	WithdrawSingleAmount string
	WithdrawSingleIndex  int

	SwapOfferIndex int
	SwapAskIndex   int
	SwapAmount     string

	Guards Guards
	Fees   Fees
}

// DefaultTokens mirrors the stablecoin triple used on LocalTerra.
func DefaultTokens() []TokenSpec {
	return []TokenSpec{
		{Symbol: "USDT", Name: "tether", Decimals: 6, Supply: "1000000"},
		{Symbol: "USDC", Name: "usdc coin", Decimals: 6, Supply: "1000000"},
		{Symbol: "DAI", Name: "dai", Decimals: 6, Supply: "1000000"},
	}
}

// Validate rejects a scenario before anything is broadcast.
func (s Scenario) Validate() error {
	if s.TokenWasm == "" {
		return fmt.Errorf("token wasm path is required")
	}
	if s.PoolWasm == "" {
		return fmt.Errorf("pool wasm path is required")
	}
	if len(s.Tokens) < 2 {
		return fmt.Errorf("at least two tokens are required, got %d", len(s.Tokens))
	}

	seen := make(map[string]struct{}, len(s.Tokens))
	for i, token := range s.Tokens {
		if token.Symbol == "" {
			return fmt.Errorf("token %d: symbol is required", i)
		}
		if _, ok := seen[token.Symbol]; ok {
			return fmt.Errorf("token %d: duplicate symbol %s", i, token.Symbol)
		}
		seen[token.Symbol] = struct{}{}
		if err := terraswap.ValidateAmount(token.Supply); err != nil {
			return fmt.Errorf("token %s supply: %w", token.Symbol, err)
		}
	}

	if err := terraswap.ValidateAmount(s.Amplification); err != nil {
		return fmt.Errorf("amplification: %w", err)
	}
	if err := terraswap.ValidateAmount(s.PoolFee); err != nil {
		return fmt.Errorf("pool fee: %w", err)
	}

	if len(s.Liquidity) != len(s.Tokens) {
		return fmt.Errorf("liquidity needs %d amounts, got %d", len(s.Tokens), len(s.Liquidity))
	}
	for i, amount := range s.Liquidity {
		if err := terraswap.ValidateAmount(amount); err != nil {
			return fmt.Errorf("liquidity %s: %w", s.Tokens[i].Symbol, err)
		}
	}

	if err := terraswap.ValidateAmount(s.WithdrawAmount); err != nil {
		return fmt.Errorf("withdraw amount: %w", err)
	}
	if err := terraswap.ValidateAmount(s.WithdrawSingleAmount); err != nil {
		return fmt.Errorf("withdraw single amount: %w", err)
	}
	if err := terraswap.ValidateAmount(s.SwapAmount); err != nil {
		return fmt.Errorf("swap amount: %w", err)
	}

	for name, index := range map[string]int{
		"withdraw single asset": s.WithdrawSingleIndex,
		"swap offer asset":      s.SwapOfferIndex,
		"swap ask asset":        s.SwapAskIndex,
	} {
		if index < 0 || index >= len(s.Tokens) {
			return fmt.Errorf("%s index %d out of range", name, index)
		}
	}
	if s.SwapOfferIndex == s.SwapAskIndex {
		return fmt.Errorf("swap offer and ask must differ")
	}

	if err := terraswap.ValidateMinOut(s.Guards.Provide); err != nil {
		return fmt.Errorf("provide guard: %w", err)
	}
	if err := terraswap.ValidateMinOut(s.Guards.WithdrawSingle); err != nil {
		return fmt.Errorf("withdraw-single guard: %w", err)
	}
	if err := terraswap.ValidateMinOut(s.Guards.Swap); err != nil {
		return fmt.Errorf("swap guard: %w", err)
	}

	if err := validateFee(s.Fees.Default); err != nil {
		return fmt.Errorf("default fee: %w", err)
	}
	if err := validateFee(s.Fees.Swap); err != nil {
		return fmt.Errorf("swap fee: %w", err)
	}
	return nil
}

func validateFee(fee model.Fee) error {
	if err := terraswap.ValidateAmount(fee.Gas); err != nil {
		return fmt.Errorf("gas: %w", err)
	}
	for _, coin := range fee.Amount {
		if coin.Denom == "" {
			return fmt.Errorf("fee coin denom is empty")
		}
		if err := terraswap.ValidateAmount(coin.Amount); err != nil {
			return fmt.Errorf("fee %s: %w", coin.Denom, err)
		}
	}
	return nil
}
