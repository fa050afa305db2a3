// Package perfjson provides JSON encoding with a fast primary path and a
// correctness-guaranteed fallback.
//
// The fast path uses goccy/go-json; when it fails the same input is retried
// with encoding/json. Both paths produce semantically identical results for
// valid input, so callers never observe a difference beyond speed. An error
// is reported only when both paths fail, and it carries both causes.
package perfjson

import (
	stdjson "encoding/json"
	"fmt"

	gojson "github.com/goccy/go-json"
)

// CodecError reports that both the fast and the fallback JSON path failed.
type CodecError struct {
	Op       string // "marshal" or "unmarshal"
	FastErr  error
	StdErr   error
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	return fmt.Sprintf("json %s failed - fast: %v, fallback: %v", e.Op, e.FastErr, e.StdErr)
}

// Unwrap returns the fallback error, which is the authoritative one.
func (e *CodecError) Unwrap() error {
	return e.StdErr
}

// Marshal encodes v, preferring the fast path.
func Marshal(v any) ([]byte, error) {
	data, fastErr := gojson.Marshal(v)
	if fastErr == nil {
		return data, nil
	}

	data, stdErr := stdjson.Marshal(v)
	if stdErr == nil {
		return data, nil
	}

	return nil, &CodecError{Op: "marshal", FastErr: fastErr, StdErr: stdErr}
}

// MarshalIndent encodes v with indentation, preferring the fast path.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	data, fastErr := gojson.MarshalIndent(v, prefix, indent)
	if fastErr == nil {
		return data, nil
	}

	data, stdErr := stdjson.MarshalIndent(v, prefix, indent)
	if stdErr == nil {
		return data, nil
	}

	return nil, &CodecError{Op: "marshal", FastErr: fastErr, StdErr: stdErr}
}

// Unmarshal decodes data into v, preferring the fast path. When the fast
// path rejects the input, the fallback decoder decides: malformed input
// fails cleanly rather than producing partial results.
func Unmarshal(data []byte, v any) error {
	fastErr := gojson.Unmarshal(data, v)
	if fastErr == nil {
		return nil
	}

	stdErr := stdjson.Unmarshal(data, v)
	if stdErr == nil {
		return nil
	}

	return &CodecError{Op: "unmarshal", FastErr: fastErr, StdErr: stdErr}
}
