package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// jsonEncoder produces the textual wire form: one UTF-8 object per record,
// no delimiter between records.
type jsonEncoder struct {
	buf bytes.Buffer
}

func newJSONEncoder() *jsonEncoder {
	return &jsonEncoder{}
}

func (e *jsonEncoder) Encode(v any) ([]byte, error) {
	e.buf.Reset()
	enc := json.NewEncoder(&e.buf)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	// json.Encoder terminates every value with a newline; the wire format is
	// plain concatenated objects.
	return bytes.TrimSuffix(e.buf.Bytes(), []byte{'\n'}), nil
}

type jsonDecoder struct {
	dec *json.Decoder
}

func newJSONDecoder(r io.Reader) *jsonDecoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &jsonDecoder{dec: dec}
}

func (d *jsonDecoder) Decode() (map[string]any, error) {
	var v any
	if err := d.dec.Decode(&v); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return canonicalizeRecord(v)
}
