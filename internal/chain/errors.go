package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
)

// ErrDecodeResponse wraps LCD bodies that cannot be decoded.
var ErrDecodeResponse = errors.New("decode lcd response")

// ErrChainIDMismatch is returned when the node serves a different network than
// the one transactions are signed for.
var ErrChainIDMismatch = errors.New("chain id mismatch")

// ErrorKind classifies a failure for retry decisions.
type ErrorKind string

const (
	KindTransient ErrorKind = "transient"
	KindRejected  ErrorKind = "rejected"
	KindMalformed ErrorKind = "malformed"
	KindUnknown   ErrorKind = "unknown"
)

// HTTPError is a non-2xx LCD response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("lcd %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// TxError is a transaction the chain accepted for processing but rejected.
type TxError struct {
	TxHash    string
	Code      uint32
	Codespace string
	RawLog    string
}

func (e *TxError) Error() string {
	return fmt.Sprintf("tx %s rejected: code %d (%s): %s", e.TxHash, e.Code, e.Codespace, e.RawLog)
}

// Classify maps an error returned by this package to an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var txErr *TxError
	if errors.As(err, &txErr) {
		return KindRejected
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 500 || httpErr.StatusCode == 429 {
			return KindTransient
		}
		return KindMalformed
	}

	if errors.Is(err, ErrDecodeResponse) {
		return KindMalformed
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindMalformed
	}

	if errors.Is(err, context.Canceled) {
		return KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindTransient
	}

	return KindUnknown
}
