package main

import (
	"fmt"
	"strings"

	"stableswapDeployer/internal/model"
	"stableswapDeployer/internal/terraswap"
)

// parseAssetInfo treats bech32 addresses with the account prefix as CW20
// tokens and anything else as a native denom.
func parseAssetInfo(ref, prefix string) (model.AssetInfo, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.AssetInfo{}, fmt.Errorf("asset is required")
	}
	if strings.HasPrefix(ref, prefix+"1") {
		return model.TokenAsset(ref), nil
	}
	return model.NativeAsset(ref), nil
}

// parseAssets parses ref=amount pairs.
func parseAssets(items []string, prefix string) ([]model.Asset, error) {
	assets := make([]model.Asset, 0, len(items))
	for _, item := range items {
		ref, amount, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("asset %q must be ref=amount", item)
		}
		info, err := parseAssetInfo(ref, prefix)
		if err != nil {
			return nil, err
		}
		amount = strings.TrimSpace(amount)
		if err := terraswap.ValidateAmount(amount); err != nil {
			return nil, fmt.Errorf("asset %s: %w", ref, err)
		}
		assets = append(assets, model.Asset{Info: info, Amount: amount})
	}
	return assets, nil
}
