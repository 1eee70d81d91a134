package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"stableswapDeployer/internal/model"
)

type fakeSigner struct {
	signed []byte
}

func (s *fakeSigner) Address() string { return "terra1sender" }

func (s *fakeSigner) PubKey() (string, string) { return "tendermint/PubKeySecp256k1", "AAAA" }

func (s *fakeSigner) Sign(signBytes []byte) ([]byte, error) {
	s.signed = append([]byte(nil), signBytes...)
	return []byte{1, 2, 3}, nil
}

func newLCD(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL + "/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNodeChainID(t *testing.T) {
	client := newLCD(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/node_info" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"node_info":{"network":"localterra","version":"0.34"}}`)
	})

	chainID, err := client.NodeChainID(context.Background())
	if err != nil {
		t.Fatalf("node chain id: %v", err)
	}
	if chainID != "localterra" {
		t.Fatalf("chain id mismatch: %s", chainID)
	}
}

func TestCheckChainIDRejectsOtherNetwork(t *testing.T) {
	client := newLCD(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"node_info":{"network":"bombay-12"}}`)
	})

	err := client.CheckChainID(context.Background(), "localterra")
	if !errors.Is(err, ErrChainIDMismatch) {
		t.Fatalf("expected ErrChainIDMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "bombay-12") || !strings.Contains(err.Error(), "localterra") {
		t.Fatalf("error should name both networks: %v", err)
	}
	if err := client.CheckChainID(context.Background(), "bombay-12"); err != nil {
		t.Fatalf("matching chain id: %v", err)
	}
}

func TestAccountCachesAccountNumber(t *testing.T) {
	var calls atomic.Int32
	client := newLCD(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path != "/auth/accounts/terra1sender" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// second response reports a bogus account number to prove the cache wins
		fmt.Fprintf(w, `{"height":"10","result":{"type":"core/Account","value":{"address":"terra1sender","account_number":"%d","sequence":%d}}}`, 7*n, n)
	})

	first, err := client.Account(context.Background(), "terra1sender")
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if first.AccountNumber != 7 || first.Sequence != 1 {
		t.Fatalf("first account mismatch: %+v", first)
	}

	second, err := client.Account(context.Background(), "terra1sender")
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if second.AccountNumber != 7 || second.Sequence != 2 {
		t.Fatalf("second account mismatch: %+v", second)
	}
}

func TestWalletSignUsesSortedSignDoc(t *testing.T) {
	client := newLCD(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"value":{"address":"terra1sender","account_number":"5","sequence":"9"}}}`)
	})
	signer := &fakeSigner{}
	wallet, err := NewWallet(client, signer, "localterra", "")
	if err != nil {
		t.Fatalf("new wallet: %v", err)
	}

	msg := model.Msg{Type: model.TypeMsgExecuteContract, Value: model.MsgExecuteContract{
		Sender:     "terra1sender",
		Contract:   "terra1pool",
		ExecuteMsg: json.RawMessage(`{"swap":{"min_out_amount":"0","ask_asset":{"info":{"token":{"contract_addr":"C"}},"amount":"0"}}}`),
		Coins:      []model.Coin{},
	}}
	tx, err := wallet.Sign(context.Background(), []model.Msg{msg}, model.Fee{Gas: "200000"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	want := `{"account_number":"5","chain_id":"localterra","fee":{"amount":[],"gas":"200000"},"memo":"",` +
		`"msgs":[{"type":"wasm/MsgExecuteContract","value":{"coins":[],"contract":"terra1pool",` +
		`"execute_msg":{"swap":{"ask_asset":{"amount":"0","info":{"token":{"contract_addr":"C"}}},"min_out_amount":"0"}},` +
		`"sender":"terra1sender"}}],"sequence":"9"}`
	if string(signer.signed) != want {
		t.Fatalf("sign bytes mismatch:\n got %s\nwant %s", signer.signed, want)
	}

	if len(tx.Signatures) != 1 || tx.Signatures[0].Signature != "AQID" {
		t.Fatalf("signature mismatch: %+v", tx.Signatures)
	}
	if tx.Signatures[0].PubKey.Type != "tendermint/PubKeySecp256k1" {
		t.Fatalf("pubkey type mismatch: %+v", tx.Signatures[0].PubKey)
	}
	if tx.Sequence != 9 {
		t.Fatalf("signed sequence = %d", tx.Sequence)
	}
}

func TestWalletBroadcast(t *testing.T) {
	client := newLCD(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/txs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body: %v", err)
		}
		if req["mode"] != "block" {
			t.Errorf("mode mismatch: %v", req["mode"])
		}
		fmt.Fprint(w, `{"height":"42","txhash":"ABCD","raw_log":"[]","logs":[{"msg_index":0,"log":"","events":[{"type":"store_code","attributes":[{"key":"code_id","value":"3"}]}]}]}`)
	})
	wallet, _ := NewWallet(client, &fakeSigner{}, "localterra", "")

	result, err := wallet.Broadcast(context.Background(), model.SignedTx{})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if result.TxHash != "ABCD" || result.Height != "42" {
		t.Fatalf("result mismatch: %+v", result)
	}
	if got := result.Logs[0].Events[0].Attributes[0].Value; got != "3" {
		t.Fatalf("attribute mismatch: %s", got)
	}
}

func TestWalletBroadcastRejected(t *testing.T) {
	client := newLCD(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"height":"0","txhash":"DEAD","code":5,"codespace":"sdk","raw_log":"insufficient funds"}`)
	})
	wallet, _ := NewWallet(client, &fakeSigner{}, "localterra", "")

	result, err := wallet.Broadcast(context.Background(), model.SignedTx{})
	var txErr *TxError
	if !errors.As(err, &txErr) {
		t.Fatalf("expected TxError, got %v", err)
	}
	if txErr.Code != 5 || result.TxHash != "DEAD" {
		t.Fatalf("rejection mismatch: %+v %+v", txErr, result)
	}
	if Classify(err) != KindRejected {
		t.Fatalf("expected rejected kind, got %s", Classify(err))
	}
}

// confirmLCD serves an account at sequence and a two page search history whose
// last page holds the tx signed "AQID" with code.
func confirmLCD(t *testing.T, sequence int, code int, searches *atomic.Int32) *Client {
	t.Helper()
	return newLCD(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/accounts/terra1sender":
			fmt.Fprintf(w, `{"result":{"value":{"address":"terra1sender","account_number":"5","sequence":"%d"}}}`, sequence)
		case "/txs":
			searches.Add(1)
			query := r.URL.Query()
			if query.Get("message.sender") != "terra1sender" {
				t.Errorf("unexpected sender filter %q", query.Get("message.sender"))
			}
			if query.Get("page") == "1" {
				fmt.Fprint(w, `{"page_total":"2","txs":[{"height":"7","txhash":"OLD","tx":{"value":{"signatures":[{"signature":"b2xk"}]}}}]}`)
				return
			}
			fmt.Fprintf(w, `{"page_total":"2","txs":[{"height":"42","txhash":"LANDED","code":%d,"raw_log":"[]",`+
				`"logs":[{"msg_index":0,"log":"","events":[{"type":"store_code","attributes":[{"key":"code_id","value":"3"}]}]}],`+
				`"tx":{"value":{"signatures":[{"signature":"AQID"}]}}}]}`, code)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
}

func TestWalletConfirmFindsCommittedTx(t *testing.T) {
	var searches atomic.Int32
	wallet, _ := NewWallet(confirmLCD(t, 10, 0, &searches), &fakeSigner{}, "localterra", "")
	tx := model.SignedTx{Signatures: []model.Signature{{Signature: "AQID"}}, Sequence: 9}

	result, landed, err := wallet.Confirm(context.Background(), tx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !landed || result.TxHash != "LANDED" || result.Height != "42" {
		t.Fatalf("unexpected confirmation: landed=%v %+v", landed, result)
	}
	if len(result.Logs) != 1 || result.Logs[0].Events[0].Attributes[0].Value != "3" {
		t.Fatalf("logs not decoded: %+v", result.Logs)
	}
	if searches.Load() != 2 {
		t.Fatalf("expected first and last page to be searched, got %d", searches.Load())
	}
}

func TestWalletConfirmNotLanded(t *testing.T) {
	var searches atomic.Int32
	wallet, _ := NewWallet(confirmLCD(t, 9, 0, &searches), &fakeSigner{}, "localterra", "")
	tx := model.SignedTx{Signatures: []model.Signature{{Signature: "AQID"}}, Sequence: 9}

	_, landed, err := wallet.Confirm(context.Background(), tx)
	if err != nil || landed {
		t.Fatalf("expected not landed, got landed=%v err=%v", landed, err)
	}
	if searches.Load() != 0 {
		t.Fatalf("unchanged sequence must not search history")
	}
}

func TestWalletConfirmLandedButRejected(t *testing.T) {
	var searches atomic.Int32
	wallet, _ := NewWallet(confirmLCD(t, 10, 11, &searches), &fakeSigner{}, "localterra", "")
	tx := model.SignedTx{Signatures: []model.Signature{{Signature: "AQID"}}, Sequence: 9}

	result, landed, err := wallet.Confirm(context.Background(), tx)
	var txErr *TxError
	if !landed || !errors.As(err, &txErr) || txErr.Code != 11 || result.TxHash != "LANDED" {
		t.Fatalf("expected committed rejection, got landed=%v result=%+v err=%v", landed, result, err)
	}
}

func TestHTTPErrorsAreClassified(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	client := newLCD(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		fmt.Fprint(w, "unavailable")
	})

	_, err := client.NodeChainID(context.Background())
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected HTTPError 503, got %v", err)
	}
	if Classify(err) != KindTransient {
		t.Fatalf("503 should be transient, got %s", Classify(err))
	}

	status.Store(http.StatusBadRequest)
	_, err = client.NodeChainID(context.Background())
	if Classify(err) != KindMalformed {
		t.Fatalf("400 should be malformed, got %s", Classify(err))
	}
}

func TestUndecodableBodyIsMalformed(t *testing.T) {
	client := newLCD(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>gateway</html>")
	})
	_, err := client.NodeChainID(context.Background())
	if !errors.Is(err, ErrDecodeResponse) {
		t.Fatalf("expected ErrDecodeResponse, got %v", err)
	}
	if Classify(err) != KindMalformed {
		t.Fatalf("expected malformed, got %s", Classify(err))
	}
}

func TestConnectionFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(url)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.NodeChainID(context.Background())
	if err == nil {
		t.Fatalf("expected connection error")
	}
	if Classify(err) != KindTransient {
		t.Fatalf("connection refused should be transient, got %s (%v)", Classify(err), err)
	}
}

func TestSortJSON(t *testing.T) {
	got, err := SortJSON([]byte(`{"b":1,"a":{"d":"x","c":12345678901234567890}}`))
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if want := `{"a":{"c":12345678901234567890,"d":"x"},"b":1}`; string(got) != want {
		t.Fatalf("sorted json mismatch: %s", got)
	}
	if _, err := SortJSON([]byte("{")); err == nil {
		t.Fatalf("expected error for truncated json")
	}
	if _, err := NewClient(" "); err == nil || !strings.Contains(err.Error(), "lcd url") {
		t.Fatalf("expected lcd url error, got %v", err)
	}
}
