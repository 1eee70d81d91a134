package workflow

import (
	"errors"
	"fmt"

	"stableswapDeployer/internal/chain"
	"stableswapDeployer/internal/events"
	"stableswapDeployer/internal/model"
)

// FailureKind tags why a step failed.
type FailureKind string

const (
	FailureTransient  FailureKind = "transient"
	FailureRejected   FailureKind = "rejected"
	FailureMalformed  FailureKind = "malformed"
	FailureExtraction FailureKind = "extraction"
	// FailureAmbiguous marks a broadcast that may have been committed although
	// no result was received. Resume refuses to submit such a step again.
	FailureAmbiguous FailureKind = "ambiguous"
	FailureUnknown   FailureKind = "unknown"
)

// ErrAmbiguousBroadcast is returned when a transaction was possibly committed
// but its result could not be confirmed.
var ErrAmbiguousBroadcast = errors.New("broadcast outcome unknown")

// Step names.
const (
	StepStoreTokenCode   = "store_token_code"
	StepStorePoolCode    = "store_pool_code"
	StepInstantiatePool  = "instantiate_pool"
	StepProvideLiquidity = "provide_liquidity"
	StepWithdraw         = "withdraw_liquidity"
	StepWithdrawSingle   = "withdraw_single_liquidity"
	StepSwap             = "swap"
)

// InstantiateTokenStep is the step name for the token with symbol.
func InstantiateTokenStep(symbol string) string {
	return "instantiate_token:" + symbol
}

// StepError is returned by Run for the step that stopped the workflow.
// The underlying error is preserved for errors.Is and errors.As.
type StepError struct {
	Step     string
	Kind     FailureKind
	Attempts int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed (%s after %d attempt(s)): %v", e.Step, e.Kind, e.Attempts, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepResult is the tagged outcome of one step.
type StepResult struct {
	Step     string
	Status   model.StepStatus
	Kind     FailureKind
	TxHash   string
	Height   string
	Outputs  map[string]string
	Attempts int
	Err      error
}

func classify(err error) FailureKind {
	if errors.Is(err, ErrAmbiguousBroadcast) {
		return FailureAmbiguous
	}
	if errors.Is(err, events.ErrMissingField) || errors.Is(err, events.ErrInvalidField) {
		return FailureExtraction
	}
	switch chain.Classify(err) {
	case chain.KindTransient:
		return FailureTransient
	case chain.KindRejected:
		return FailureRejected
	case chain.KindMalformed:
		return FailureMalformed
	default:
		return FailureUnknown
	}
}

func isTransient(err error) bool {
	return classify(err) == FailureTransient
}
