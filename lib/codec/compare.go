package codec

import (
	"encoding/json"
	"strings"
)

// type ranks of the total order used by Compare
const (
	rankNull = iota
	rankBool
	rankNumber
	rankString
	rankArray
	rankObject
	rankOther
)

// Compare defines a total order over decoded values and returns -1, 0 or +1.
//
// Values of different JSON types are ordered by type:
// null < bool < number < string < array < object.
// Within a type, numbers compare numerically, strings lexicographically, false < true,
// arrays element by element (a shorter prefix sorts first) and objects by their
// canonical encoding (keys sorted).
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case rankNull:
		return 0
	case rankBool:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case rankNumber:
		return compareNumbers(a, b)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankArray:
		x, y := a.([]any), b.([]any)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := Compare(x[i], y[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(x) < len(y):
			return -1
		case len(x) > len(y):
			return 1
		default:
			return 0
		}
	default:
		return strings.Compare(canonical(a), canonical(b))
	}
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case int64, float64, json.Number:
		return rankNumber
	case string:
		return rankString
	case []any:
		return rankArray
	case map[string]any:
		return rankObject
	default:
		return rankOther
	}
}

// canonical returns the encoding used to order objects and unknown values.
// encoding/json sorts map keys, so equal objects always have the same text.
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
