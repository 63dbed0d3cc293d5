package formula

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is an evaluation result: an integer, or the Success/Fail outcome of
// a comparison-rooted formula.
type Value struct {
	Number  int
	Boolean bool // true when the value is an outcome rather than a number
	Success bool
}

// NumberValue wraps an integer.
func NumberValue(n int) Value { return Value{Number: n} }

// OutcomeValue wraps a comparison outcome.
func OutcomeValue(success bool) Value { return Value{Boolean: true, Success: success} }

// String returns the decimal number, "Success" or "Fail".
func (v Value) String() string {
	if !v.Boolean {
		return strconv.Itoa(v.Number)
	}
	if v.Success {
		return "Success"
	}
	return "Fail"
}

// MarshalJSON encodes numbers as JSON numbers and outcomes as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Boolean {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Number)
}

// UnmarshalJSON accepts a JSON number or the strings "Success" and "Fail".
func (v *Value) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("formula: value must be a number or outcome: %w", err)
	}
	switch s {
	case "Success":
		*v = OutcomeValue(true)
	case "Fail":
		*v = OutcomeValue(false)
	default:
		return fmt.Errorf("formula: unknown outcome %q", s)
	}
	return nil
}
