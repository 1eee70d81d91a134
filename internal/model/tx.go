package model

// Signature is a legacy StdSignature.
type Signature struct {
	PubKey    PubKey `json:"pub_key"`
	Signature string `json:"signature"`
}

// PubKey is an amino-typed public key.
type PubKey struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SignedTx is a legacy StdTx ready to broadcast.
type SignedTx struct {
	Msgs       []Msg       `json:"msg"`
	Fee        Fee         `json:"fee"`
	Signatures []Signature `json:"signatures"`
	Memo       string      `json:"memo"`
	// Sequence is the account sequence the tx was signed with.
	Sequence uint64 `json:"-"`
}

// TxResult is the broadcast result returned by the LCD.
type TxResult struct {
	Height    string  `json:"height"`
	TxHash    string  `json:"txhash"`
	Code      uint32  `json:"code,omitempty"`
	Codespace string  `json:"codespace,omitempty"`
	RawLog    string  `json:"raw_log"`
	GasWanted string  `json:"gas_wanted"`
	GasUsed   string  `json:"gas_used"`
	Logs      []TxLog `json:"logs"`
}

// TxLog holds the events emitted by one message of a transaction.
type TxLog struct {
	MsgIndex int     `json:"msg_index"`
	Log      string  `json:"log"`
	Events   []Event `json:"events"`
}

// Event is an emitted event with ordered attributes.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute is one key/value pair of an Event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
