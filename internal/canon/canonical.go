package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Marshal produces the canonical byte form of a Value. It is deterministic
// and idempotent: Marshal(Parse(Marshal(v))) yields identical bytes.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshal(&buf, v, "$"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalGo converts an ordinary Go value and marshals it in one step.
func MarshalGo(v any) ([]byte, error) {
	cv, err := FromGo(v)
	if err != nil {
		return nil, err
	}
	return Marshal(cv)
}

func marshal(buf *bytes.Buffer, v Value, path string) error {
	switch val := v.(type) {
	case Null:
		buf.WriteString("null")
		return nil
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case Num:
		s, err := formatNumber(float64(val), path)
		if err != nil {
			return err
		}
		buf.WriteString(s)
		return nil
	case Str:
		return marshalString(buf, string(val))
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshal(buf, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case Map:
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := marshal(buf, val[k], fmt.Sprintf("%s.%s", path, k)); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case nil:
		return &ValidationError{Path: path, Message: "nil Value (use Null{})"}
	default:
		return &ValidationError{Path: path, Message: fmt.Sprintf("unsupported Value type %T", v)}
	}
}

// formatNumber emits the shortest fixed-point decimal that round-trips
// exactly. No scientific notation, no trailing fractional zeros, no decimal
// point on integral values. -0 normalizes to 0.
func formatNumber(f float64, path string) (string, error) {
	if math.IsNaN(f) {
		return "", &ValidationError{Path: path, Message: "NaN is not a valid number"}
	}
	if math.IsInf(f, 0) {
		return "", &ValidationError{Path: path, Message: "Infinity is not a valid number"}
	}
	if f == 0 {
		// Covers -0 as well: IEEE -0 == 0.
		return "0", nil
	}
	// 'f' with precision -1 is the shortest decimal that parses back to the
	// same float64, always in fixed-point notation.
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// marshalString writes a quoted JSON string. HTML-relevant characters are not
// escaped; escaping is limited to what JSON requires.
func marshalString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode string: %w", err)
	}
	// json.Encoder appends a newline; canonical output has no whitespace.
	b := buf.Bytes()
	if len(b) > 0 && b[len(b)-1] == '\n' {
		buf.Truncate(len(b) - 1)
	}
	return nil
}

// sortedKeys returns map keys in byte-wise ascending order. Go's native
// string comparison is byte-wise, so sort.Strings is exactly the canonical
// order; no locale-aware collation is involved.
func sortedKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
