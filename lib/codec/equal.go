package codec

import (
	"encoding/json"
	"math/big"
)

// Equal reports whether a and b are structurally equal JSON values.
// Both values are normalized first, so int(1), int64(1) and float64(1) are equal
// and a struct equals the map it encodes to. Values without a JSON
// representation are never equal to anything.
func Equal(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return EqualDecoded(na, nb)
}

// EqualDecoded is Equal for values that already came out of a codec.
func EqualDecoded(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case int64, float64, json.Number:
		return isNumber(b) && compareNumbers(a, b) == 0
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !EqualDecoded(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, found := y[k]
			if !found || !EqualDecoded(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Number helpers
// --------------------------------------------------------------------------

func isNumber(v any) bool {
	switch v.(type) {
	case int64, float64, json.Number:
		return true
	}
	return false
}

// compareNumbers compares two decoded numbers exactly. Same-typed int64 and float64
// pairs are compared directly, every other combination through math/big so that
// int64(2^53+1) and float64(2^53) still order correctly.
func compareNumbers(a, b any) int {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmpOrdered(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	}
	return toBig(a).Cmp(toBig(b))
}

func cmpOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// toBig converts a decoded number into an exact big.Float.
func toBig(v any) *big.Float {
	switch x := v.(type) {
	case int64:
		return new(big.Float).SetInt64(x)
	case float64:
		return new(big.Float).SetFloat64(x)
	case json.Number:
		if i, ok := new(big.Int).SetString(string(x), 10); ok {
			return new(big.Float).SetInt(i)
		}
		if f, _, err := big.ParseFloat(string(x), 10, bigNumberPrec, big.ToNearestEven); err == nil {
			return f
		}
	}
	return new(big.Float)
}

// bigNumberPrec is the mantissa precision for json.Number values that are not integers
const bigNumberPrec = 256
