package output

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisAddr = "localhost:6379"

func TestRedisOutputPushesRecords(t *testing.T) {
	probe := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	defer probe.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := probe.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}

	list := "logdrop:test:" + time.Now().Format("150405.000000000")
	defer probe.Del(context.Background(), list)

	out, err := NewRedisOutput(testRedisAddr, "", list)
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, out.Feed(map[string]any{
		"id":      int64(42),
		"source":  "service",
		"parent":  map[string]any{"child": "item"},
		"message": "le message - 0",
	}))

	values, err := probe.LRange(context.Background(), list, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, values, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(values[0]), &rec))
	assert.Equal(t, "le message - 0", rec["message"])
	assert.Equal(t, "service", rec["source"])
}
