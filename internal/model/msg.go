package model

import "encoding/json"

// Amino type names of the wasm messages accepted by the LCD.
const (
	TypeMsgStoreCode           = "wasm/MsgStoreCode"
	TypeMsgInstantiateContract = "wasm/MsgInstantiateContract"
	TypeMsgExecuteContract     = "wasm/MsgExecuteContract"
)

// Msg is a legacy amino-JSON message.
type Msg struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// MsgStoreCode uploads contract bytecode.
type MsgStoreCode struct {
	Sender       string `json:"sender"`
	WASMByteCode string `json:"wasm_byte_code"`
}

// MsgInstantiateContract creates a contract from a stored code id.
type MsgInstantiateContract struct {
	Sender    string          `json:"sender"`
	Admin     string          `json:"admin"`
	CodeID    string          `json:"code_id"`
	InitMsg   json.RawMessage `json:"init_msg"`
	InitCoins []Coin          `json:"init_coins"`
}

// MsgExecuteContract calls a contract.
type MsgExecuteContract struct {
	Sender     string          `json:"sender"`
	Contract   string          `json:"contract"`
	ExecuteMsg json.RawMessage `json:"execute_msg"`
	Coins      []Coin          `json:"coins"`
}
