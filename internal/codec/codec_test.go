package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logdrop/pkg/models"
)

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("json")
	require.NoError(t, err)
	assert.Equal(t, EncodingJSON, enc)

	enc, err = ParseEncoding("msgpack")
	require.NoError(t, err)
	assert.Equal(t, EncodingMsgpack, enc)

	_, err = ParseEncoding("protobuf")
	assert.Error(t, err)
}

func TestJSONWireFormat(t *testing.T) {
	enc := NewEncoder(EncodingJSON)
	data, err := enc.Encode(models.NewEchoRecord("", 0))
	require.NoError(t, err)

	want := `{"id":42,"source":"service","parent":{"child":"item"},"message":"le message - 0"}`
	assert.Equal(t, want, string(data))
}

func TestEncodingsDecodeEqual(t *testing.T) {
	for _, index := range []int{0, 1, 7, 1000} {
		rec := models.NewEchoRecord("service", index)

		jsonBytes, err := NewEncoder(EncodingJSON).Encode(rec)
		require.NoError(t, err)
		msgpackBytes, err := NewEncoder(EncodingMsgpack).Encode(rec)
		require.NoError(t, err)

		fromJSON, err := NewDecoder(EncodingJSON, bytes.NewReader(jsonBytes)).Decode()
		require.NoError(t, err)
		fromMsgpack, err := NewDecoder(EncodingMsgpack, bytes.NewReader(msgpackBytes)).Decode()
		require.NoError(t, err)

		assert.Equal(t, fromJSON, fromMsgpack, "index %d", index)
		assert.Equal(t, int64(42), fromJSON["id"])
		assert.Equal(t, map[string]any{"child": "item"}, fromJSON["parent"])
	}
}

func TestStreamDecodeConcatenatedRecords(t *testing.T) {
	for _, encoding := range []Encoding{EncodingJSON, EncodingMsgpack} {
		var stream bytes.Buffer
		enc := NewEncoder(encoding)
		for i := 0; i < 3; i++ {
			data, err := enc.Encode(models.NewEchoRecord("service", i))
			require.NoError(t, err)
			stream.Write(data)
		}

		dec := NewDecoder(encoding, &stream)
		messages := []string{}
		for {
			rec, err := dec.Decode()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			messages = append(messages, rec["message"].(string))
		}

		assert.Equal(t,
			[]string{"le message - 0", "le message - 1", "le message - 2"},
			messages, "encoding %s", encoding)
	}
}

func TestEncoderReusesBuffer(t *testing.T) {
	enc := NewEncoder(EncodingMsgpack)
	first, err := enc.Encode(models.NewEchoRecord("service", 0))
	require.NoError(t, err)
	firstCopy := append([]byte(nil), first...)

	second, err := enc.Encode(models.NewEchoRecord("service", 1))
	require.NoError(t, err)

	rec, err := NewDecoder(EncodingMsgpack, bytes.NewReader(firstCopy)).Decode()
	require.NoError(t, err)
	assert.Equal(t, "le message - 0", rec["message"])

	rec, err = NewDecoder(EncodingMsgpack, bytes.NewReader(second)).Decode()
	require.NoError(t, err)
	assert.Equal(t, "le message - 1", rec["message"])
}
