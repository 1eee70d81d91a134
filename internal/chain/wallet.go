package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"stableswapDeployer/internal/model"
)

// Signer produces secp256k1 signatures for an account.
type Signer interface {
	Address() string
	PubKey() (typ, value string)
	Sign(signBytes []byte) ([]byte, error)
}

// Wallet signs and broadcasts transactions for one account on one chain.
type Wallet struct {
	client  *Client
	signer  Signer
	chainID string
	memo    string
}

// NewWallet binds signer to client for chainID.
func NewWallet(client *Client, signer Signer, chainID, memo string) (*Wallet, error) {
	if client == nil {
		return nil, fmt.Errorf("lcd client is nil")
	}
	if signer == nil {
		return nil, fmt.Errorf("signer is nil")
	}
	if chainID == "" {
		return nil, fmt.Errorf("chain id is required")
	}
	return &Wallet{client: client, signer: signer, chainID: chainID, memo: memo}, nil
}

// Address returns the sender address.
func (w *Wallet) Address() string {
	return w.signer.Address()
}

// ChainID returns the chain the wallet signs for.
func (w *Wallet) ChainID() string {
	return w.chainID
}

// Sign builds a StdTx over msgs with fee using the current account sequence.
func (w *Wallet) Sign(ctx context.Context, msgs []model.Msg, fee model.Fee) (model.SignedTx, error) {
	if len(msgs) == 0 {
		return model.SignedTx{}, fmt.Errorf("no messages to sign")
	}
	if fee.Amount == nil {
		fee.Amount = []model.Coin{}
	}

	acc, err := w.client.Account(ctx, w.signer.Address())
	if err != nil {
		return model.SignedTx{}, fmt.Errorf("query account: %w", err)
	}

	signBytes, err := SignBytes(StdSignDoc{
		AccountNumber: strconv.FormatUint(acc.AccountNumber, 10),
		ChainID:       w.chainID,
		Fee:           fee,
		Memo:          w.memo,
		Msgs:          msgs,
		Sequence:      strconv.FormatUint(acc.Sequence, 10),
	})
	if err != nil {
		return model.SignedTx{}, err
	}

	sig, err := w.signer.Sign(signBytes)
	if err != nil {
		return model.SignedTx{}, err
	}

	typ, value := w.signer.PubKey()
	return model.SignedTx{
		Msgs: msgs,
		Fee:  fee,
		Signatures: []model.Signature{{
			PubKey:    model.PubKey{Type: typ, Value: value},
			Signature: base64.StdEncoding.EncodeToString(sig),
		}},
		Memo:     w.memo,
		Sequence: acc.Sequence,
	}, nil
}

// Broadcast submits tx. A committed tx with a non-zero code is returned together
// with a *TxError.
func (w *Wallet) Broadcast(ctx context.Context, tx model.SignedTx) (model.TxResult, error) {
	result, err := w.client.BroadcastTx(ctx, tx)
	if err != nil {
		return model.TxResult{}, err
	}
	if result.Code != 0 {
		return result, txError(result)
	}
	return result, nil
}

// Confirm reports whether tx was committed although its broadcast returned no
// result. The tx counts as landed once the account sequence has moved past the
// one it was signed with; the committed result is then looked up by signature.
// landed with an empty result means the tx could not be found.
func (w *Wallet) Confirm(ctx context.Context, tx model.SignedTx) (model.TxResult, bool, error) {
	if len(tx.Signatures) == 0 {
		return model.TxResult{}, false, fmt.Errorf("tx is not signed")
	}

	acc, err := w.client.Account(ctx, w.signer.Address())
	if err != nil {
		return model.TxResult{}, false, fmt.Errorf("query account: %w", err)
	}
	if acc.Sequence <= tx.Sequence {
		return model.TxResult{}, false, nil
	}

	result, found, err := w.client.FindTxBySignature(ctx, w.signer.Address(), tx.Signatures[0].Signature)
	if err != nil {
		return model.TxResult{}, true, fmt.Errorf("search txs: %w", err)
	}
	if !found {
		return model.TxResult{}, true, nil
	}
	if result.Code != 0 {
		return result, true, txError(result)
	}
	return result, true, nil
}

func txError(result model.TxResult) *TxError {
	return &TxError{
		TxHash:    result.TxHash,
		Code:      result.Code,
		Codespace: result.Codespace,
		RawLog:    result.RawLog,
	}
}
