package chain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"stableswapDeployer/internal/model"
)

// StdSignDoc is the legacy amino sign document.
type StdSignDoc struct {
	AccountNumber string      `json:"account_number"`
	ChainID       string      `json:"chain_id"`
	Fee           model.Fee   `json:"fee"`
	Memo          string      `json:"memo"`
	Msgs          []model.Msg `json:"msgs"`
	Sequence      string      `json:"sequence"`
}

// SignBytes returns the canonical (key-sorted, compact) JSON of doc.
func SignBytes(doc StdSignDoc) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal sign doc: %w", err)
	}
	return SortJSON(raw)
}

// SortJSON re-encodes a JSON document with object keys sorted at every level.
func SortJSON(raw []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("sort json: %w", err)
	}
	return json.Marshal(value)
}
