package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"stableswapDeployer/internal/model"
	"stableswapDeployer/internal/terraswap"
)

var coinPattern = regexp.MustCompile(`^([0-9]+)([a-zA-Z][a-zA-Z0-9/]{1,127})$`)

// ParseCoins parses "1500000uluna,10uusd" into coins sorted by denom.
func ParseCoins(input string) ([]model.Coin, error) {
	parts := splitAndClean(input)
	coins := make([]model.Coin, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		m := coinPattern.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("invalid coin %q", part)
		}
		if err := terraswap.ValidateAmount(m[1]); err != nil {
			return nil, fmt.Errorf("coin %q: %w", part, err)
		}
		if _, ok := seen[m[2]]; ok {
			return nil, fmt.Errorf("duplicate denom %s", m[2])
		}
		seen[m[2]] = struct{}{}
		coins = append(coins, model.Coin{Denom: m[2], Amount: m[1]})
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].Denom < coins[j].Denom })
	return coins, nil
}

func parseFee(gas, amount string) (model.Fee, error) {
	gas = strings.TrimSpace(gas)
	if err := terraswap.ValidateAmount(gas); err != nil {
		return model.Fee{}, fmt.Errorf("gas: %w", err)
	}
	coins, err := ParseCoins(amount)
	if err != nil {
		return model.Fee{}, err
	}
	return model.Fee{Amount: coins, Gas: gas}, nil
}
