// Package codec provides the two interchangeable wire encodings for echo
// records: human-readable JSON text and a compact MessagePack map form.
// Both encodings of the same record decode to equal canonical values.
package codec

import (
	"encoding/json"
	"fmt"
	"io"
)

// Encoding selects the wire format at runtime.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding validates a user-supplied encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case EncodingJSON:
		return EncodingJSON, nil
	case EncodingMsgpack:
		return EncodingMsgpack, nil
	default:
		return "", fmt.Errorf("unknown encoding %q (expected json or msgpack)", s)
	}
}

// Encoder serializes one value per call.
//
// The returned slice is an internal buffer reused across calls; callers must
// copy it if they need the bytes past the next Encode.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// Decoder reads a stream of concatenated records and returns them one at a
// time as canonical maps. It returns io.EOF when the stream ends cleanly.
type Decoder interface {
	Decode() (map[string]any, error)
}

// NewEncoder returns the encoder for the chosen wire format.
func NewEncoder(enc Encoding) Encoder {
	if enc == EncodingMsgpack {
		return newMsgpackEncoder()
	}
	return newJSONEncoder()
}

// NewDecoder returns a streaming decoder for the chosen wire format.
func NewDecoder(enc Encoding, r io.Reader) Decoder {
	if enc == EncodingMsgpack {
		return newMsgpackDecoder(r)
	}
	return newJSONDecoder(r)
}

// canonicalize rewrites a freshly decoded value into the canonical in-memory
// form shared by both decoders: maps are map[string]any, integral numbers are
// int64, other numbers float64. This is what makes the JSON and MessagePack
// forms of one record compare equal.
func canonicalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > 1<<62 {
			return nil, fmt.Errorf("integer %d out of range", val)
		}
		return int64(val), nil
	case float32:
		return float64(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", val.String(), err)
		}
		return f, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			c, err := canonicalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			c, err := canonicalize(item)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string map key %v", k)
			}
			c, err := canonicalize(item)
			if err != nil {
				return nil, err
			}
			out[key] = c
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// canonicalizeRecord applies canonicalize to a decoded top-level record.
func canonicalizeRecord(v any) (map[string]any, error) {
	c, err := canonicalize(v)
	if err != nil {
		return nil, err
	}
	rec, ok := c.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record is %T, not a map", c)
	}
	return rec, nil
}
