package model

import "fmt"

// AssetInfo identifies a pool constituent: a CW20 token contract or a native denom.
// Exactly one of Token or NativeToken is set.
type AssetInfo struct {
	Token       *TokenInfo       `json:"token,omitempty"`
	NativeToken *NativeTokenInfo `json:"native_token,omitempty"`
}

// TokenInfo references a CW20 token contract.
type TokenInfo struct {
	ContractAddr string `json:"contract_addr"`
}

// NativeTokenInfo references a native denomination.
type NativeTokenInfo struct {
	Denom string `json:"denom"`
}

// TokenAsset returns the AssetInfo for a token contract address.
func TokenAsset(contractAddr string) AssetInfo {
	return AssetInfo{Token: &TokenInfo{ContractAddr: contractAddr}}
}

// NativeAsset returns the AssetInfo for a native denom.
func NativeAsset(denom string) AssetInfo {
	return AssetInfo{NativeToken: &NativeTokenInfo{Denom: denom}}
}

func (a AssetInfo) IsNative() bool {
	return a.NativeToken != nil
}

// Validate reports whether exactly one variant is set and non-empty.
func (a AssetInfo) Validate() error {
	switch {
	case a.Token != nil && a.NativeToken != nil:
		return fmt.Errorf("asset info has both token and native_token")
	case a.Token != nil:
		if a.Token.ContractAddr == "" {
			return fmt.Errorf("token contract address is empty")
		}
	case a.NativeToken != nil:
		if a.NativeToken.Denom == "" {
			return fmt.Errorf("native denom is empty")
		}
	default:
		return fmt.Errorf("asset info is empty")
	}
	return nil
}

func (a AssetInfo) String() string {
	if a.NativeToken != nil {
		return a.NativeToken.Denom
	}
	if a.Token != nil {
		return a.Token.ContractAddr
	}
	return ""
}

// Asset pairs an AssetInfo with a Uint128 amount encoded as a decimal string.
type Asset struct {
	Info   AssetInfo `json:"info"`
	Amount string    `json:"amount"`
}

// Coin is a native coin amount.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Fee is the legacy StdFee envelope.
type Fee struct {
	Amount []Coin `json:"amount"`
	Gas    string `json:"gas"`
}

// PoolDescriptor identifies a live pool and its liquidity token.
type PoolDescriptor struct {
	Contract       string `json:"contract"`
	LiquidityToken string `json:"lp_token"`
}
