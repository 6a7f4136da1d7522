package codec

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// NewJSONCodec creates a new codec using json encoding
func NewJSONCodec() IValueCodec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements the IValueCodec interface using json encoding
type jsonCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IValueCodec)
// --------------------------------------------------------------------------

func (j jsonCodecImpl) Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrapf(err, "codec: value of type %T is not JSON-representable", v)
	}
	return string(b), nil
}

func (j jsonCodecImpl) Decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodeError{Text: text, Err: err}
	}

	// the whole row must be exactly one value
	if _, err := dec.Token(); err != io.EOF {
		return nil, &DecodeError{Text: text, Err: errors.New("trailing data after value")}
	}

	return normalizeNumbers(v), nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// isIntegerText reports whether a JSON number literal has no fraction and no exponent
func isIntegerText(s string) bool {
	return !strings.ContainsAny(s, ".eE")
}

// normalizeNumbers replaces every json.Number in a decoded value.
// Integral numbers that fit into an int64 become int64, everything else becomes float64.
// Integers outside the int64 range and numbers that overflow a float64 are kept as
// json.Number so they encode back to the same text.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if isIntegerText(string(x)) {
			return x
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalizeNumbers(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeNumbers(x[k])
		}
		return x
	default:
		return v
	}
}
