package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface over the constrained value-tree types.
// Only Null, Bool, Num, Str, List, and Map implement it.
type Value interface {
	value() // sealed
}

// Null represents a JSON null.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Num represents a number. There is no separate integer type: 1, 1.0, and
// 1.00 are the same Num and produce the same canonical bytes.
type Num float64

func (Num) value() {}

// Str represents a UTF-8 string value.
type Str string

func (Str) value() {}

// List represents an ordered list of values.
type List []Value

func (List) value() {}

// Map represents a mapping with unique string keys.
type Map map[string]Value

func (Map) value() {}

// ValidationError reports a value outside the value-tree type set, or a
// non-finite number. It is never recovered silently.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid value at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("invalid value: %s", e.Message)
}

// FromGo converts an ordinary Go value into a Value. Accepted inputs are
// nil, bool, string, the common numeric kinds, []any, map[string]any, and
// anything already a Value. Everything else is a ValidationError.
func FromGo(v any) (Value, error) {
	return fromGo(v, "$")
}

func fromGo(v any, path string) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return Str(val), nil
	case int:
		return Num(val), nil
	case int32:
		return Num(val), nil
	case int64:
		return Num(val), nil
	case float32:
		return checkedNum(float64(val), path)
	case float64:
		return checkedNum(val, path)
	case json.Number:
		f, err := strconv.ParseFloat(string(val), 64)
		if err != nil {
			return nil, &ValidationError{Path: path, Message: fmt.Sprintf("unparseable number %q", val)}
		}
		return checkedNum(f, path)
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			cv, err := fromGo(elem, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			list[i] = cv
		}
		return list, nil
	case map[string]any:
		m := make(Map, len(val))
		for k, elem := range val {
			cv, err := fromGo(elem, fmt.Sprintf("%s.%s", path, k))
			if err != nil {
				return nil, err
			}
			m[k] = cv
		}
		return m, nil
	default:
		return nil, &ValidationError{Path: path, Message: fmt.Sprintf("unsupported type %T", v)}
	}
}

func checkedNum(f float64, path string) (Value, error) {
	if math.IsNaN(f) {
		return nil, &ValidationError{Path: path, Message: "NaN is not a valid value"}
	}
	if math.IsInf(f, 0) {
		return nil, &ValidationError{Path: path, Message: "Infinity is not a valid value"}
	}
	return Num(f), nil
}

// Parse strictly decodes JSON bytes into a Value. Numbers are decoded via
// json.Number so that canonical re-serialization is exact.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("malformed JSON: %v", err)}
	}
	// Reject trailing content after the first value.
	if dec.More() {
		return nil, &ValidationError{Message: "trailing content after JSON value"}
	}

	return FromGo(raw)
}
