package output

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisList is the list key records are pushed onto.
const DefaultRedisList = "logdrop:records"

// defaultRedisMaxLen caps the list so an unattended collector cannot grow
// Redis without bound.
const defaultRedisMaxLen = 100000

// RedisOutput pushes each record, rendered as JSON, onto a capped Redis list.
type RedisOutput struct {
	client *redis.Client
	list   string
	maxLen int64
}

func NewRedisOutput(addr, password, list string) (*RedisOutput, error) {
	if list == "" {
		list = DefaultRedisList
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisOutput{client: rdb, list: list, maxLen: defaultRedisMaxLen}, nil
}

func (o *RedisOutput) Name() string { return "redis" }

func (o *RedisOutput) Feed(record map[string]any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pipe := o.client.TxPipeline()
	pipe.LPush(ctx, o.list, payload)
	pipe.LTrim(ctx, o.list, 0, o.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push record to %s: %w", o.list, err)
	}
	return nil
}

func (o *RedisOutput) Close() error {
	return o.client.Close()
}
