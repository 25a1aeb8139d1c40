package codec

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	ucodec "github.com/ugorji/go/codec"
)

func newMsgpackHandle() *ucodec.MsgpackHandle {
	h := &ucodec.MsgpackHandle{}
	h.RawToString = true
	h.SignedInteger = true
	h.MapType = reflect.TypeOf(map[string]any(nil))
	return h
}

// msgpackEncoder produces the compact binary map form: a 4-entry top-level
// map with one nested 1-entry map, value-equivalent to the JSON form.
type msgpackEncoder struct {
	buf []byte
	enc *ucodec.Encoder
}

func newMsgpackEncoder() *msgpackEncoder {
	e := &msgpackEncoder{}
	e.enc = ucodec.NewEncoderBytes(&e.buf, newMsgpackHandle())
	return e
}

func (e *msgpackEncoder) Encode(v any) ([]byte, error) {
	e.buf = e.buf[:0]
	e.enc.ResetBytes(&e.buf)
	if err := e.enc.Encode(v); err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return e.buf, nil
}

type msgpackDecoder struct {
	dec *ucodec.Decoder
}

func newMsgpackDecoder(r io.Reader) *msgpackDecoder {
	return &msgpackDecoder{dec: ucodec.NewDecoder(r, newMsgpackHandle())}
}

func (d *msgpackDecoder) Decode() (map[string]any, error) {
	var v any
	if err := d.dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("msgpack decode: %w", err)
	}
	return canonicalizeRecord(v)
}
