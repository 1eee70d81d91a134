package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"stableswapDeployer/internal/model"
)

const (
	DefaultTimeout = 60 * time.Second

	broadcastModeBlock = "block"
	maxErrorBody       = 2048
	searchPageLimit    = 100
)

// Client wraps the Terra LCD REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu             sync.RWMutex
	accountNumbers map[string]uint64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a new LCD client for lcdURL.
func NewClient(lcdURL string, opts ...ClientOption) (*Client, error) {
	lcdURL = strings.TrimRight(strings.TrimSpace(lcdURL), "/")
	if lcdURL == "" {
		return nil, fmt.Errorf("lcd url is required")
	}

	c := &Client{
		baseURL:        lcdURL,
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		accountNumbers: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}

// Account holds the signing counters of an account.
type Account struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

type nodeInfoResponse struct {
	NodeInfo struct {
		Network string `json:"network"`
	} `json:"node_info"`
}

type accountResponse struct {
	Result struct {
		Value struct {
			Address       string     `json:"address"`
			AccountNumber uintString `json:"account_number"`
			Sequence      uintString `json:"sequence"`
		} `json:"value"`
	} `json:"result"`
}

type searchTxsResponse struct {
	PageTotal uintString `json:"page_total"`
	Txs       []struct {
		model.TxResult
		Tx struct {
			Value struct {
				Signatures []model.Signature `json:"signatures"`
			} `json:"value"`
		} `json:"tx"`
	} `json:"txs"`
}

type broadcastRequest struct {
	Tx   model.SignedTx `json:"tx"`
	Mode string         `json:"mode"`
}

// NodeChainID returns the network id reported by the node.
func (c *Client) NodeChainID(ctx context.Context) (string, error) {
	var resp nodeInfoResponse
	if err := c.do(ctx, http.MethodGet, "/node_info", nil, &resp); err != nil {
		return "", err
	}
	if resp.NodeInfo.Network == "" {
		return "", fmt.Errorf("%w: node_info.network is empty", ErrDecodeResponse)
	}
	return resp.NodeInfo.Network, nil
}

// CheckChainID fails with ErrChainIDMismatch unless the node serves want.
func (c *Client) CheckChainID(ctx context.Context, want string) error {
	got, err := c.NodeChainID(ctx)
	if err != nil {
		return fmt.Errorf("query node info: %w", err)
	}
	if got != want {
		return fmt.Errorf("%w: node reports %s, expected %s", ErrChainIDMismatch, got, want)
	}
	return nil
}

// Account returns the account number and current sequence. The account number is
// immutable and cached after the first lookup.
func (c *Client) Account(ctx context.Context, address string) (Account, error) {
	var resp accountResponse
	if err := c.do(ctx, http.MethodGet, "/auth/accounts/"+address, nil, &resp); err != nil {
		return Account{}, err
	}

	value := resp.Result.Value
	acc := Account{
		Address:       address,
		AccountNumber: uint64(value.AccountNumber),
		Sequence:      uint64(value.Sequence),
	}

	c.mu.RLock()
	cached, ok := c.accountNumbers[address]
	c.mu.RUnlock()
	if ok {
		acc.AccountNumber = cached
		return acc, nil
	}
	if value.Address != "" {
		c.mu.Lock()
		c.accountNumbers[address] = acc.AccountNumber
		c.mu.Unlock()
	}
	return acc, nil
}

// BroadcastTx submits tx and waits for it to be committed in a block.
func (c *Client) BroadcastTx(ctx context.Context, tx model.SignedTx) (model.TxResult, error) {
	var result model.TxResult
	if err := c.do(ctx, http.MethodPost, "/txs", broadcastRequest{Tx: tx, Mode: broadcastModeBlock}, &result); err != nil {
		return model.TxResult{}, err
	}
	if result.TxHash == "" {
		return model.TxResult{}, fmt.Errorf("%w: broadcast response has no txhash", ErrDecodeResponse)
	}
	return result, nil
}

// FindTxBySignature searches the transactions sent by sender for the one
// carrying signature. The first and the last result page are searched, which
// covers the recent history of a deployer account.
func (c *Client) FindTxBySignature(ctx context.Context, sender, signature string) (model.TxResult, bool, error) {
	page := 1
	for {
		query := url.Values{}
		query.Set("message.sender", sender)
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(searchPageLimit))

		var resp searchTxsResponse
		if err := c.do(ctx, http.MethodGet, "/txs?"+query.Encode(), nil, &resp); err != nil {
			return model.TxResult{}, false, err
		}
		for _, tx := range resp.Txs {
			for _, sig := range tx.Tx.Value.Signatures {
				if sig.Signature == signature {
					return tx.TxResult, true, nil
				}
			}
		}

		last := int(resp.PageTotal)
		if page != 1 || last <= 1 {
			return model.TxResult{}, false, nil
		}
		page = last
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lcd %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := strings.TrimSpace(string(data))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: text}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecodeResponse, method, path, err)
	}
	return nil
}

// uintString accepts both "12" and 12.
type uintString uint64

func (u *uintString) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*u = 0
		return nil
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return err
	}
	*u = uintString(v)
	return nil
}
