package terraswap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

var (
	// ErrInvalidAmount is returned for amounts that are not Uint128 decimal strings.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrMissingMinOut is returned when a minimum-output guard was not supplied.
	ErrMissingMinOut = errors.New("min_out_amount guard is required")
)

// ValidateAmount checks that amount is a base-10 unsigned integer that fits in 128 bits.
// The string itself is never rewritten.
func ValidateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	for _, r := range amount {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q is not a decimal integer", ErrInvalidAmount, amount)
		}
	}
	v, err := uint256.FromDecimal(amount)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidAmount, amount, err)
	}
	if v.BitLen() > 128 {
		return fmt.Errorf("%w: %q overflows uint128", ErrInvalidAmount, amount)
	}
	return nil
}

// ValidateMinOut validates a slippage guard. An empty guard is rejected;
// "0" is accepted only because the caller spelled it out.
func ValidateMinOut(minOut string) error {
	if strings.TrimSpace(minOut) == "" {
		return ErrMissingMinOut
	}
	if err := ValidateAmount(minOut); err != nil {
		return fmt.Errorf("min_out_amount: %w", err)
	}
	return nil
}

// ParseCodeID converts a code id as printed by the chain into an integer.
func ParseCodeID(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	id, err := strconv.ParseUint(input, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid code id %q: %w", input, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid code id %q: must be positive", input)
	}
	return id, nil
}
