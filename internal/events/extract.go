package events

import (
	"errors"
	"fmt"

	"stableswapDeployer/internal/model"
	"stableswapDeployer/internal/terraswap"
)

// ErrMissingField is returned when a result does not carry an expected event field.
var ErrMissingField = errors.New("missing expected event field")

// ErrInvalidField is returned when a located value fails the field's Check.
var ErrInvalidField = errors.New("invalid event field")

// Path is a positional address inside TxResult.Logs.
type Path struct {
	Log       int
	Event     int
	Attribute int
}

func (p Path) String() string {
	return fmt.Sprintf("logs[%d].events[%d].attributes[%d]", p.Log, p.Event, p.Attribute)
}

// Field describes where an identifier is expected in a transaction result.
type Field struct {
	Name      string
	EventType string
	Key       string
	Path      Path
	// Check, when set, must accept the extracted value.
	Check func(value string) error
}

// Fields emitted by the token and pool contracts on Terra. The paths are the
// positions observed on LocalTerra and bombay-12.
var (
	CodeID = Field{
		Name:      "code_id",
		EventType: "store_code",
		Key:       "code_id",
		Path:      Path{Log: 0, Event: 1, Attribute: 1},
		Check:     checkCodeID,
	}
	ContractAddress = Field{
		Name:      "contract_address",
		EventType: "instantiate_contract",
		Key:       "contract_address",
		Path:      Path{Log: 0, Event: 0, Attribute: 3},
	}
	PoolContract = Field{
		Name:      "pool_contract",
		EventType: "from_contract",
		Key:       "contract_address",
		Path:      Path{Log: 0, Event: 0, Attribute: 0},
	}
	LiquidityToken = Field{
		Name:      "liquidity_token",
		EventType: "from_contract",
		Key:       "liquidity_token_addr",
		Path:      Path{Log: 0, Event: 0, Attribute: 1},
	}
)

// Match tells how a field value was located.
type Match string

const (
	MatchPosition Match = "position"
	MatchKey      Match = "key"
)

// Extract returns the value of field in result. The documented path is used when
// the event type and key found there agree with the field; otherwise the first
// attribute with that event type and key is returned. A field that is found
// neither way yields ErrMissingField, and one rejected by field.Check yields
// ErrInvalidField.
func Extract(result model.TxResult, field Field) (string, Match, error) {
	value, match, err := locate(result, field)
	if err != nil {
		return "", "", err
	}
	if field.Check != nil {
		if err := field.Check(value); err != nil {
			return "", "", fmt.Errorf("%w: %s: %v", ErrInvalidField, field.Name, err)
		}
	}
	return value, match, nil
}

func locate(result model.TxResult, field Field) (string, Match, error) {
	if attr, ok := attributeAt(result, field.Path, field.EventType); ok && attr.Key == field.Key {
		return attr.Value, MatchPosition, nil
	}
	for _, log := range result.Logs {
		for _, event := range log.Events {
			if event.Type != field.EventType {
				continue
			}
			for _, attr := range event.Attributes {
				if attr.Key == field.Key {
					return attr.Value, MatchKey, nil
				}
			}
		}
	}
	return "", "", fmt.Errorf("%w: %s (%s/%s at %s)", ErrMissingField, field.Name, field.EventType, field.Key, field.Path)
}

// ExtractAll extracts several fields, failing on the first missing one.
func ExtractAll(result model.TxResult, fields ...Field) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		value, _, err := Extract(result, field)
		if err != nil {
			return nil, err
		}
		out[field.Name] = value
	}
	return out, nil
}

// CheckOutputs verifies that previously extracted outputs still hold every
// field and pass its Check.
func CheckOutputs(outputs map[string]string, fields ...Field) error {
	for _, field := range fields {
		value, ok := outputs[field.Name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingField, field.Name)
		}
		if field.Check != nil {
			if err := field.Check(value); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidField, field.Name, err)
			}
		}
	}
	return nil
}

func attributeAt(result model.TxResult, path Path, eventType string) (model.Attribute, bool) {
	if path.Log < 0 || path.Log >= len(result.Logs) {
		return model.Attribute{}, false
	}
	events := result.Logs[path.Log].Events
	if path.Event < 0 || path.Event >= len(events) {
		return model.Attribute{}, false
	}
	event := events[path.Event]
	if event.Type != eventType {
		return model.Attribute{}, false
	}
	if path.Attribute < 0 || path.Attribute >= len(event.Attributes) {
		return model.Attribute{}, false
	}
	return event.Attributes[path.Attribute], true
}

func checkCodeID(value string) error {
	_, err := terraswap.ParseCodeID(value)
	return err
}
