package terraswap

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"stableswapDeployer/internal/model"
)

// InitialBalance is a CW20 genesis balance.
type InitialBalance struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// TokenParams configures a CW20 token instance.
type TokenParams struct {
	Name            string
	Symbol          string
	Decimals        uint8
	InitialBalances []InitialBalance
}

// InitHook is an optional callback executed by the pool after instantiation.
type InitHook struct {
	ContractAddr string `json:"contract_addr"`
	Msg          string `json:"msg"`
}

// PoolParams configures a stable-swap pool instance.
type PoolParams struct {
	AssetInfos    []model.AssetInfo
	Amplification string
	Fee           string
	TokenCodeID   uint64
	InitHook      *InitHook
}

type tokenInitMsg struct {
	Decimals        uint8            `json:"decimals"`
	InitialBalances []InitialBalance `json:"initial_balances"`
	Name            string           `json:"name"`
	Symbol          string           `json:"symbol"`
}

type poolInitMsg struct {
	AssetInfos    []model.AssetInfo `json:"asset_infos"`
	InitHook      *InitHook         `json:"init_hook,omitempty"`
	Amplification string            `json:"amplification"`
	Fee           string            `json:"fee"`
	TokenCodeID   uint64            `json:"token_code_id"`
}

type increaseAllowanceMsg struct {
	IncreaseAllowance struct {
		Amount  string `json:"amount"`
		Spender string `json:"spender"`
	} `json:"increase_allowance"`
}

type provideLiquidityMsg struct {
	ProvideLiquidity provideLiquidityBody `json:"provide_liquidity"`
}

type provideLiquidityBody struct {
	Assets       []model.Asset `json:"assets"`
	MinOutAmount string        `json:"min_out_amount"`
	Receiver     string        `json:"receiver,omitempty"`
}

// StoreCode uploads wasm bytecode.
func StoreCode(sender string, wasm []byte) (model.Msg, error) {
	if sender == "" {
		return model.Msg{}, fmt.Errorf("sender is required")
	}
	if len(wasm) == 0 {
		return model.Msg{}, fmt.Errorf("wasm bytecode is empty")
	}
	return model.Msg{
		Type: model.TypeMsgStoreCode,
		Value: model.MsgStoreCode{
			Sender:       sender,
			WASMByteCode: base64.StdEncoding.EncodeToString(wasm),
		},
	}, nil
}

// InstantiateToken creates a CW20 token from codeID.
func InstantiateToken(sender, admin string, codeID uint64, params TokenParams) (model.Msg, error) {
	balances := params.InitialBalances
	if balances == nil {
		balances = []InitialBalance{}
	}
	for _, b := range balances {
		if err := ValidateAmount(b.Amount); err != nil {
			return model.Msg{}, fmt.Errorf("initial balance for %s: %w", b.Address, err)
		}
	}
	return instantiate(sender, admin, codeID, tokenInitMsg{
		Decimals:        params.Decimals,
		InitialBalances: balances,
		Name:            params.Name,
		Symbol:          params.Symbol,
	})
}

// InstantiatePool creates a pool over params.AssetInfos from codeID.
func InstantiatePool(sender, admin string, codeID uint64, params PoolParams) (model.Msg, error) {
	if len(params.AssetInfos) < 2 {
		return model.Msg{}, fmt.Errorf("pool needs at least two assets, got %d", len(params.AssetInfos))
	}
	for i, info := range params.AssetInfos {
		if err := info.Validate(); err != nil {
			return model.Msg{}, fmt.Errorf("asset %d: %w", i, err)
		}
	}
	if err := ValidateAmount(params.Amplification); err != nil {
		return model.Msg{}, fmt.Errorf("amplification: %w", err)
	}
	if err := ValidateAmount(params.Fee); err != nil {
		return model.Msg{}, fmt.Errorf("fee: %w", err)
	}
	if params.TokenCodeID == 0 {
		return model.Msg{}, fmt.Errorf("token code id is required")
	}
	return instantiate(sender, admin, codeID, poolInitMsg{
		AssetInfos:    params.AssetInfos,
		InitHook:      params.InitHook,
		Amplification: params.Amplification,
		Fee:           params.Fee,
		TokenCodeID:   params.TokenCodeID,
	})
}

// IncreaseAllowance lets spender pull amount of token from sender.
func IncreaseAllowance(sender, token, spender, amount string) (model.Msg, error) {
	if err := ValidateAmount(amount); err != nil {
		return model.Msg{}, err
	}
	var payload increaseAllowanceMsg
	payload.IncreaseAllowance.Amount = amount
	payload.IncreaseAllowance.Spender = spender
	return execute(sender, token, payload, nil)
}

// ProvideLiquidity deposits assets into pool. Native assets are attached as coins;
// token assets need a prior allowance (see ProvideLiquidityBatch).
func ProvideLiquidity(sender, pool string, assets []model.Asset, minOut, receiver string) (model.Msg, error) {
	if err := ValidateMinOut(minOut); err != nil {
		return model.Msg{}, err
	}
	if len(assets) == 0 {
		return model.Msg{}, fmt.Errorf("no assets to provide")
	}
	var coins []model.Coin
	for i, asset := range assets {
		if err := asset.Info.Validate(); err != nil {
			return model.Msg{}, fmt.Errorf("asset %d: %w", i, err)
		}
		if err := ValidateAmount(asset.Amount); err != nil {
			return model.Msg{}, fmt.Errorf("asset %d: %w", i, err)
		}
		if asset.Info.IsNative() {
			coins = append(coins, model.Coin{Denom: asset.Info.NativeToken.Denom, Amount: asset.Amount})
		}
	}
	return execute(sender, pool, provideLiquidityMsg{
		ProvideLiquidity: provideLiquidityBody{
			Assets:       assets,
			MinOutAmount: minOut,
			Receiver:     receiver,
		},
	}, coins)
}

// ProvideLiquidityBatch returns one increase_allowance per token asset followed by
// provide_liquidity. The messages are meant to be signed into a single transaction
// so the deposit is all-or-nothing.
func ProvideLiquidityBatch(sender, pool string, assets []model.Asset, minOut, receiver string) ([]model.Msg, error) {
	provide, err := ProvideLiquidity(sender, pool, assets, minOut, receiver)
	if err != nil {
		return nil, err
	}
	msgs := make([]model.Msg, 0, len(assets)+1)
	for _, asset := range assets {
		if asset.Info.IsNative() {
			continue
		}
		allowance, err := IncreaseAllowance(sender, asset.Info.Token.ContractAddr, pool, asset.Amount)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, allowance)
	}
	return append(msgs, provide), nil
}

// WithdrawLiquidity burns amount of LP token for a proportional share of every asset.
func WithdrawLiquidity(sender, lpToken, pool, amount string) (model.Msg, error) {
	return send(sender, lpToken, pool, amount, withdrawLiquidityHook{})
}

// WithdrawSingleAsset burns amount of LP token for the single asset ask.
func WithdrawSingleAsset(sender, lpToken, pool, amount string, ask model.AssetInfo, minOut string) (model.Msg, error) {
	if err := ValidateMinOut(minOut); err != nil {
		return model.Msg{}, err
	}
	if err := ask.Validate(); err != nil {
		return model.Msg{}, fmt.Errorf("withdraw asset: %w", err)
	}
	return send(sender, lpToken, pool, amount, withdrawSingleHook{
		WithdrawSingleLiquidity: withdrawSingleBody{
			Asset:        model.Asset{Info: ask, Amount: "0"},
			MinOutAmount: minOut,
		},
	})
}

// Swap trades offer into ask. Token offers go through a CW20 send to the pool;
// native offers call the pool directly with the coins attached.
func Swap(sender, pool string, offer model.Asset, ask model.AssetInfo, minOut, to string) (model.Msg, error) {
	if err := ValidateMinOut(minOut); err != nil {
		return model.Msg{}, err
	}
	if err := offer.Info.Validate(); err != nil {
		return model.Msg{}, fmt.Errorf("offer asset: %w", err)
	}
	if err := ask.Validate(); err != nil {
		return model.Msg{}, fmt.Errorf("ask asset: %w", err)
	}

	body := swapBody{
		AskAsset:     model.Asset{Info: ask, Amount: "0"},
		MinOutAmount: minOut,
		To:           to,
	}
	if !offer.Info.IsNative() {
		return send(sender, offer.Info.Token.ContractAddr, pool, offer.Amount, swapHook{Swap: body})
	}

	if err := ValidateAmount(offer.Amount); err != nil {
		return model.Msg{}, err
	}
	offerAsset := offer
	body.OfferAsset = &offerAsset
	coins := []model.Coin{{Denom: offer.Info.NativeToken.Denom, Amount: offer.Amount}}
	return execute(sender, pool, swapHook{Swap: body}, coins)
}

func send(sender, token, contract, amount string, hook interface{}) (model.Msg, error) {
	if err := ValidateAmount(amount); err != nil {
		return model.Msg{}, err
	}
	encoded, err := EncodeHook(hook)
	if err != nil {
		return model.Msg{}, err
	}
	return execute(sender, token, cw20SendMsg{
		Send: cw20Send{
			Amount:   amount,
			Contract: contract,
			Msg:      encoded,
		},
	}, nil)
}

func instantiate(sender, admin string, codeID uint64, initMsg interface{}) (model.Msg, error) {
	if sender == "" {
		return model.Msg{}, fmt.Errorf("sender is required")
	}
	if codeID == 0 {
		return model.Msg{}, fmt.Errorf("code id is required")
	}
	raw, err := json.Marshal(initMsg)
	if err != nil {
		return model.Msg{}, fmt.Errorf("marshal init msg: %w", err)
	}
	return model.Msg{
		Type: model.TypeMsgInstantiateContract,
		Value: model.MsgInstantiateContract{
			Sender:    sender,
			Admin:     admin,
			CodeID:    strconv.FormatUint(codeID, 10),
			InitMsg:   raw,
			InitCoins: []model.Coin{},
		},
	}, nil
}

func execute(sender, contract string, payload interface{}, coins []model.Coin) (model.Msg, error) {
	if sender == "" {
		return model.Msg{}, fmt.Errorf("sender is required")
	}
	if contract == "" {
		return model.Msg{}, fmt.Errorf("contract address is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return model.Msg{}, fmt.Errorf("marshal execute msg: %w", err)
	}
	sorted := make([]model.Coin, len(coins))
	copy(sorted, coins)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Denom < sorted[j].Denom })
	return model.Msg{
		Type: model.TypeMsgExecuteContract,
		Value: model.MsgExecuteContract{
			Sender:     sender,
			Contract:   contract,
			ExecuteMsg: raw,
			Coins:      sorted,
		},
	}, nil
}
