package emitter

import (
	"context"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logdrop/internal/codec"
)

// acceptAndDecode accepts one connection and returns every record it carries.
func acceptAndDecode(t *testing.T, listener net.Listener, encoding codec.Encoding, out chan<- []map[string]any) {
	t.Helper()
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			out <- nil
			return
		}
		defer conn.Close()

		dec := codec.NewDecoder(encoding, conn)
		records := []map[string]any{}
		for {
			rec, err := dec.Decode()
			if err != nil {
				break
			}
			records = append(records, rec)
		}
		out <- records
	}()
}

func TestEmitterSendsCountRecordsInOrder(t *testing.T) {
	for _, encoding := range []codec.Encoding{codec.EncodingJSON, codec.EncodingMsgpack} {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		received := make(chan []map[string]any, 1)
		acceptAndDecode(t, listener, encoding, received)

		em := New(Options{
			Addr:     listener.Addr().String(),
			Count:    3,
			Encoding: encoding,
		}, nil)

		sent, err := em.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, sent)

		records := <-received
		require.Len(t, records, 3, "encoding %s", encoding)
		for i, rec := range records {
			assert.Equal(t, int64(42), rec["id"])
			assert.Equal(t, "service", rec["source"])
			assert.Equal(t, map[string]any{"child": "item"}, rec["parent"])
			assert.Equal(t, fmt.Sprintf("le message - %d", i), rec["message"])
		}

		listener.Close()
	}
}

func TestEmitterZeroCountConnectsAndSendsNothing(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	connected := make(chan int64, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			connected <- -1
			return
		}
		defer conn.Close()
		n, _ := io.Copy(io.Discard, conn)
		connected <- n
	}()

	em := New(Options{
		Addr:     listener.Addr().String(),
		Count:    0,
		Encoding: codec.EncodingJSON,
	}, nil)

	sent, err := em.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, int64(0), <-connected)
}

func TestEmitterDialFailure(t *testing.T) {
	// Grab a port and close it so the dial is refused.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	em := New(Options{
		Addr:        addr,
		Count:       1,
		Encoding:    codec.EncodingJSON,
		DialTimeout: 2 * time.Second,
	}, nil)

	sent, err := em.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, sent)
}

func TestEmitterSourceOverride(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	received := make(chan []map[string]any, 1)
	acceptAndDecode(t, listener, codec.EncodingJSON, received)

	em := New(Options{
		Addr:     listener.Addr().String(),
		Count:    1,
		Encoding: codec.EncodingJSON,
		Source:   "bench-7",
	}, nil)

	_, err = em.Run(context.Background())
	require.NoError(t, err)

	records := <-received
	require.Len(t, records, 1)
	assert.Equal(t, "bench-7", records[0]["source"])
}

func TestParseTarget(t *testing.T) {
	addr, count, err := ParseTarget([]string{"127.0.0.1", "9000", "3"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", addr)
	assert.Equal(t, 3, count)

	// COUNT defaults to 1
	addr, count, err = ParseTarget([]string{"localhost", "9000"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", addr)
	assert.Equal(t, 1, count)

	_, _, err = ParseTarget([]string{"localhost"})
	assert.Error(t, err)

	_, _, err = ParseTarget([]string{"localhost", "notaport"})
	assert.Error(t, err)

	_, _, err = ParseTarget([]string{"localhost", "9000", "many"})
	assert.Error(t, err)

	_, _, err = ParseTarget([]string{"localhost", "9000", "-1"})
	assert.Error(t, err)
}
