package terraswap

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"stableswapDeployer/internal/model"
)

const (
	sender = "terra1sender"
	pool   = "terra1pool"
	lp     = "terra1lp"
)

func assertJSON(t *testing.T, got interface{}, want string) {
	t.Helper()

	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var gotValue, wantValue interface{}
	if err := json.Unmarshal(data, &gotValue); err != nil {
		t.Fatalf("unmarshal got: %v", err)
	}
	if err := json.Unmarshal([]byte(want), &wantValue); err != nil {
		t.Fatalf("unmarshal want: %v", err)
	}
	if !reflect.DeepEqual(gotValue, wantValue) {
		t.Fatalf("json mismatch:\n got %s\nwant %s", data, want)
	}
}

func tokenAssets(addrs, amounts []string) []model.Asset {
	assets := make([]model.Asset, 0, len(addrs))
	for i, addr := range addrs {
		assets = append(assets, model.Asset{Info: model.TokenAsset(addr), Amount: amounts[i]})
	}
	return assets
}

func TestStoreCode(t *testing.T) {
	msg, err := StoreCode(sender, []byte("wasm"))
	if err != nil {
		t.Fatalf("store code: %v", err)
	}
	assertJSON(t, msg, `{"type":"wasm/MsgStoreCode","value":{"sender":"terra1sender","wasm_byte_code":"d2FzbQ=="}}`)

	if _, err := StoreCode(sender, nil); err == nil {
		t.Fatalf("expected error for empty bytecode")
	}
}

func TestInstantiateToken(t *testing.T) {
	msg, err := InstantiateToken(sender, sender, 7, TokenParams{
		Name:            "tether",
		Symbol:          "USDT",
		Decimals:        6,
		InitialBalances: []InitialBalance{{Address: sender, Amount: "1000000"}},
	})
	if err != nil {
		t.Fatalf("instantiate token: %v", err)
	}
	assertJSON(t, msg, `{
		"type": "wasm/MsgInstantiateContract",
		"value": {
			"sender": "terra1sender",
			"admin": "terra1sender",
			"code_id": "7",
			"init_msg": {
				"decimals": 6,
				"initial_balances": [{"address": "terra1sender", "amount": "1000000"}],
				"name": "tether",
				"symbol": "USDT"
			},
			"init_coins": []
		}
	}`)
}

func TestInstantiatePool(t *testing.T) {
	msg, err := InstantiatePool(sender, sender, 8, PoolParams{
		AssetInfos: []model.AssetInfo{
			model.TokenAsset("A"),
			model.TokenAsset("B"),
			model.TokenAsset("C"),
		},
		Amplification: "60",
		Fee:           "4",
		TokenCodeID:   7,
	})
	if err != nil {
		t.Fatalf("instantiate pool: %v", err)
	}
	assertJSON(t, msg, `{
		"type": "wasm/MsgInstantiateContract",
		"value": {
			"sender": "terra1sender",
			"admin": "terra1sender",
			"code_id": "8",
			"init_msg": {
				"asset_infos": [
					{"token": {"contract_addr": "A"}},
					{"token": {"contract_addr": "B"}},
					{"token": {"contract_addr": "C"}}
				],
				"amplification": "60",
				"fee": "4",
				"token_code_id": 7
			},
			"init_coins": []
		}
	}`)
}

func TestInstantiatePoolWithHookAndNativeAsset(t *testing.T) {
	msg, err := InstantiatePool(sender, "", 8, PoolParams{
		AssetInfos:    []model.AssetInfo{model.NativeAsset("uusd"), model.TokenAsset("B")},
		Amplification: "100",
		Fee:           "30",
		TokenCodeID:   7,
		InitHook:      &InitHook{ContractAddr: "terra1factory", Msg: "e30="},
	})
	if err != nil {
		t.Fatalf("instantiate pool: %v", err)
	}
	value := msg.Value.(model.MsgInstantiateContract)
	assertJSON(t, value.InitMsg, `{
		"asset_infos": [{"native_token": {"denom": "uusd"}}, {"token": {"contract_addr": "B"}}],
		"init_hook": {"contract_addr": "terra1factory", "msg": "e30="},
		"amplification": "100",
		"fee": "30",
		"token_code_id": 7
	}`)
}

func TestInstantiatePoolRejectsBadInput(t *testing.T) {
	base := PoolParams{
		AssetInfos:    []model.AssetInfo{model.TokenAsset("A"), model.TokenAsset("B")},
		Amplification: "60",
		Fee:           "4",
		TokenCodeID:   7,
	}

	single := base
	single.AssetInfos = base.AssetInfos[:1]
	if _, err := InstantiatePool(sender, sender, 8, single); err == nil {
		t.Fatalf("expected error for single asset pool")
	}

	badAmp := base
	badAmp.Amplification = "sixty"
	if _, err := InstantiatePool(sender, sender, 8, badAmp); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if _, err := InstantiatePool(sender, sender, 0, base); err == nil {
		t.Fatalf("expected error for zero code id")
	}
}

func TestProvideLiquidityBatch(t *testing.T) {
	assets := tokenAssets([]string{"A", "B", "C"}, []string{"100", "100", "50"})
	msgs, err := ProvideLiquidityBatch(sender, pool, assets, "0", "")
	if err != nil {
		t.Fatalf("provide liquidity: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 msgs, got %d", len(msgs))
	}

	assertJSON(t, msgs[0], `{
		"type": "wasm/MsgExecuteContract",
		"value": {
			"sender": "terra1sender",
			"contract": "A",
			"execute_msg": {"increase_allowance": {"amount": "100", "spender": "terra1pool"}},
			"coins": []
		}
	}`)
	assertJSON(t, msgs[2].Value.(model.MsgExecuteContract).ExecuteMsg,
		`{"increase_allowance": {"amount": "50", "spender": "terra1pool"}}`)

	assertJSON(t, msgs[3], `{
		"type": "wasm/MsgExecuteContract",
		"value": {
			"sender": "terra1sender",
			"contract": "terra1pool",
			"execute_msg": {
				"provide_liquidity": {
					"assets": [
						{"info": {"token": {"contract_addr": "A"}}, "amount": "100"},
						{"info": {"token": {"contract_addr": "B"}}, "amount": "100"},
						{"info": {"token": {"contract_addr": "C"}}, "amount": "50"}
					],
					"min_out_amount": "0"
				}
			},
			"coins": []
		}
	}`)
}

func TestProvideLiquidityNativeAttachesSortedCoins(t *testing.T) {
	assets := []model.Asset{
		{Info: model.NativeAsset("uusd"), Amount: "20"},
		{Info: model.TokenAsset("B"), Amount: "10"},
		{Info: model.NativeAsset("uluna"), Amount: "30"},
	}
	msgs, err := ProvideLiquidityBatch(sender, pool, assets, "5", "terra1receiver")
	if err != nil {
		t.Fatalf("provide liquidity: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected allowance for the token only, got %d msgs", len(msgs))
	}

	provide := msgs[1].Value.(model.MsgExecuteContract)
	want := []model.Coin{{Denom: "uluna", Amount: "30"}, {Denom: "uusd", Amount: "20"}}
	if !reflect.DeepEqual(provide.Coins, want) {
		t.Fatalf("coins mismatch: %+v", provide.Coins)
	}

	var body map[string]map[string]interface{}
	if err := json.Unmarshal(provide.ExecuteMsg, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["provide_liquidity"]["receiver"] != "terra1receiver" {
		t.Fatalf("receiver missing: %v", body)
	}
}

func TestWithdrawLiquidity(t *testing.T) {
	msg, err := WithdrawLiquidity(sender, lp, pool, "10")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	assertJSON(t, msg, `{
		"type": "wasm/MsgExecuteContract",
		"value": {
			"sender": "terra1sender",
			"contract": "terra1lp",
			"execute_msg": {"send": {"amount": "10", "contract": "terra1pool", "msg": "eyJ3aXRoZHJhd19saXF1aWRpdHkiOnt9fQ=="}},
			"coins": []
		}
	}`)
}

func TestWithdrawSingleAssetHookRoundTrip(t *testing.T) {
	msg, err := WithdrawSingleAsset(sender, lp, pool, "10", model.TokenAsset("A"), "7")
	if err != nil {
		t.Fatalf("withdraw single: %v", err)
	}

	var outer cw20SendMsg
	if err := json.Unmarshal(msg.Value.(model.MsgExecuteContract).ExecuteMsg, &outer); err != nil {
		t.Fatalf("unmarshal send: %v", err)
	}
	if outer.Send.Amount != "10" || outer.Send.Contract != pool {
		t.Fatalf("send mismatch: %+v", outer.Send)
	}

	var hook interface{}
	if err := DecodeHook(outer.Send.Msg, &hook); err != nil {
		t.Fatalf("decode hook: %v", err)
	}
	assertJSON(t, hook, `{
		"withdraw_single_liquidity": {
			"asset": {"info": {"token": {"contract_addr": "A"}}, "amount": "0"},
			"min_out_amount": "7"
		}
	}`)
}

func TestSwapTokenOffer(t *testing.T) {
	msg, err := Swap(sender, pool, model.Asset{Info: model.TokenAsset("A"), Amount: "10"}, model.TokenAsset("C"), "0", "")
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	value := msg.Value.(model.MsgExecuteContract)
	if value.Contract != "A" {
		t.Fatalf("token swap must execute on the offer token, got %s", value.Contract)
	}

	var outer cw20SendMsg
	if err := json.Unmarshal(value.ExecuteMsg, &outer); err != nil {
		t.Fatalf("unmarshal send: %v", err)
	}
	var hook interface{}
	if err := DecodeHook(outer.Send.Msg, &hook); err != nil {
		t.Fatalf("decode hook: %v", err)
	}
	assertJSON(t, hook, `{
		"swap": {
			"ask_asset": {"info": {"token": {"contract_addr": "C"}}, "amount": "0"},
			"min_out_amount": "0"
		}
	}`)
}

func TestSwapNativeOffer(t *testing.T) {
	msg, err := Swap(sender, pool, model.Asset{Info: model.NativeAsset("uusd"), Amount: "25"}, model.TokenAsset("C"), "20", "terra1to")
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	assertJSON(t, msg, `{
		"type": "wasm/MsgExecuteContract",
		"value": {
			"sender": "terra1sender",
			"contract": "terra1pool",
			"execute_msg": {
				"swap": {
					"offer_asset": {"info": {"native_token": {"denom": "uusd"}}, "amount": "25"},
					"ask_asset": {"info": {"token": {"contract_addr": "C"}}, "amount": "0"},
					"min_out_amount": "20",
					"to": "terra1to"
				}
			},
			"coins": [{"denom": "uusd", "amount": "25"}]
		}
	}`)
}

func TestGuardsAreRequired(t *testing.T) {
	if _, err := Swap(sender, pool, model.Asset{Info: model.TokenAsset("A"), Amount: "10"}, model.TokenAsset("C"), "", ""); !errors.Is(err, ErrMissingMinOut) {
		t.Fatalf("swap: expected ErrMissingMinOut, got %v", err)
	}
	if _, err := WithdrawSingleAsset(sender, lp, pool, "10", model.TokenAsset("A"), " "); !errors.Is(err, ErrMissingMinOut) {
		t.Fatalf("withdraw single: expected ErrMissingMinOut, got %v", err)
	}
	if _, err := ProvideLiquidity(sender, pool, tokenAssets([]string{"A"}, []string{"1"}), "", ""); !errors.Is(err, ErrMissingMinOut) {
		t.Fatalf("provide: expected ErrMissingMinOut, got %v", err)
	}
}

func TestZeroAmountStaysString(t *testing.T) {
	msg, err := WithdrawSingleAsset(sender, lp, pool, "10", model.TokenAsset("A"), "0")
	if err != nil {
		t.Fatalf("withdraw single: %v", err)
	}
	var outer cw20SendMsg
	if err := json.Unmarshal(msg.Value.(model.MsgExecuteContract).ExecuteMsg, &outer); err != nil {
		t.Fatalf("unmarshal send: %v", err)
	}
	var hook map[string]map[string]interface{}
	if err := DecodeHook(outer.Send.Msg, &hook); err != nil {
		t.Fatalf("decode hook: %v", err)
	}
	body := hook["withdraw_single_liquidity"]
	if v, ok := body["min_out_amount"].(string); !ok || v != "0" {
		t.Fatalf("min_out_amount should be the string \"0\", got %#v", body["min_out_amount"])
	}
	asset := body["asset"].(map[string]interface{})
	if v, ok := asset["amount"].(string); !ok || v != "0" {
		t.Fatalf("asset amount should be the string \"0\", got %#v", asset["amount"])
	}
}

func TestBuildersAreDeterministic(t *testing.T) {
	assets := tokenAssets([]string{"A", "B", "C"}, []string{"100", "100", "50"})
	first, err := ProvideLiquidityBatch(sender, pool, assets, "1", "")
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := ProvideLiquidityBatch(sender, pool, assets, "1", "")
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("builder output differs between calls:\n%s\n%s", a, b)
	}

	s1, _ := Swap(sender, pool, assets[0], model.TokenAsset("C"), "0", "")
	s2, _ := Swap(sender, pool, assets[0], model.TokenAsset("C"), "0", "")
	if !reflect.DeepEqual(s1, s2) {
		t.Fatalf("swap builder output differs between calls")
	}
}

func TestHookRoundTrip(t *testing.T) {
	original := map[string]interface{}{
		"withdraw_single_liquidity": map[string]interface{}{
			"asset":          map[string]interface{}{"info": map[string]interface{}{"token": map[string]interface{}{"contract_addr": "A"}}, "amount": "0"},
			"min_out_amount": "0",
		},
	}
	encoded, err := EncodeHook(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded map[string]interface{}
	if err := DecodeHook(encoded, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
	if err := DecodeHook("%%%", &decoded); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
}

func TestValidateAmountAndCodeID(t *testing.T) {
	for _, ok := range []string{"0", "1", "340282366920938463463374607431768211455"} {
		if err := ValidateAmount(ok); err != nil {
			t.Fatalf("amount %q should be valid: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "-1", "1.5", "abc", "340282366920938463463374607431768211456"} {
		if err := ValidateAmount(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %q: expected ErrInvalidAmount, got %v", bad, err)
		}
	}

	id, err := ParseCodeID(" 42 ")
	if err != nil || id != 42 {
		t.Fatalf("parse code id: %d %v", id, err)
	}
	if _, err := ParseCodeID("0"); err == nil {
		t.Fatalf("expected error for zero code id")
	}
	if _, err := ParseCodeID("x"); err == nil {
		t.Fatalf("expected error for non-numeric code id")
	}
}
