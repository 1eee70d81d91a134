package terraswap

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"stableswapDeployer/internal/model"
)

// EncodeHook serializes a message embedded into a CW20 send as base64 JSON.
func EncodeHook(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal hook: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeHook reverses EncodeHook into v.
func DecodeHook(encoded string, v interface{}) error {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode hook base64: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode hook json: %w", err)
	}
	return nil
}

type withdrawLiquidityHook struct {
	WithdrawLiquidity struct{} `json:"withdraw_liquidity"`
}

type withdrawSingleHook struct {
	WithdrawSingleLiquidity withdrawSingleBody `json:"withdraw_single_liquidity"`
}

type withdrawSingleBody struct {
	Asset        model.Asset `json:"asset"`
	MinOutAmount string      `json:"min_out_amount"`
}

type swapHook struct {
	Swap swapBody `json:"swap"`
}

// swapBody serves both the CW20 hook (no offer_asset) and the direct
// execute used for native offers.
type swapBody struct {
	OfferAsset   *model.Asset `json:"offer_asset,omitempty"`
	AskAsset     model.Asset  `json:"ask_asset"`
	MinOutAmount string       `json:"min_out_amount"`
	To           string       `json:"to,omitempty"`
}

type cw20SendMsg struct {
	Send cw20Send `json:"send"`
}

type cw20Send struct {
	Amount   string `json:"amount"`
	Contract string `json:"contract"`
	Msg      string `json:"msg"`
}
