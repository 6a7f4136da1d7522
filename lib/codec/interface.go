package codec

import (
	"fmt"
)

// IValueCodec is the interface for all value codecs.
// A codec turns application values into the text form that is written to a table row
// and reconstructs them when the row is read again.
type IValueCodec interface {
	// Encode serializes a value into its stored text form.
	// It returns an error if the value has no JSON representation (channels, functions, NaN, ...).
	Encode(v any) (text string, err error)
	// Decode reconstructs a value from its stored text form.
	// Malformed text results in a *DecodeError.
	Decode(text string) (v any, err error)
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// maxQuotedText limits how much of a broken row is echoed back in error messages.
const maxQuotedText = 64

// DecodeError is returned when stored text is not a valid encoding.
type DecodeError struct {
	Text string // the offending stored text
	Err  error  // the underlying parser error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	text := e.Text
	if len(text) > maxQuotedText {
		text = text[:maxQuotedText] + "..."
	}
	return fmt.Sprintf("codec: malformed stored value %q: %v", text, e.Err)
}

// Unwrap returns the underlying parser error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// --------------------------------------------------------------------------
// Package level helpers
// --------------------------------------------------------------------------

// defaultCodec is used by the package level helpers.
var defaultCodec = NewJSONCodec()

// Default returns the codec used by stores when none is configured.
func Default() IValueCodec {
	return defaultCodec
}

// Normalize returns v as it would look after being stored and read back.
// Go integers become int64, maps become map[string]any, structs become objects and so on.
func Normalize(v any) (any, error) {
	text, err := defaultCodec.Encode(v)
	if err != nil {
		return nil, err
	}
	return defaultCodec.Decode(text)
}
