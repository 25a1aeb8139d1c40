// Package emitter implements the load-generation client: it opens TCP
// connections to a collector and writes a fixed-shape echo record a
// configured number of times per connection.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"logdrop/internal/codec"
	"logdrop/pkg/models"
)

// Options configures one emitter run.
type Options struct {
	Addr        string         // target host:port
	Count       int            // records per connection, >= 0
	Encoding    codec.Encoding // wire format for every record
	Source      string         // source field override, "" for default
	Rate        float64        // records per second per connection, 0 = unlimited
	Connections int            // parallel connections, minimum 1
	DialTimeout time.Duration
}

// ParseTarget validates the positional HOST PORT [COUNT] arguments and
// returns the dial address and record count. COUNT defaults to 1.
func ParseTarget(args []string) (string, int, error) {
	if len(args) < 2 {
		return "", 0, fmt.Errorf("HOST and PORT arguments are required")
	}

	port, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("invalid PORT %q: %w", args[1], err)
	}
	if port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}

	count := 1
	if len(args) > 2 {
		count, err = strconv.Atoi(args[2])
		if err != nil {
			return "", 0, fmt.Errorf("invalid COUNT %q: %w", args[2], err)
		}
		if count < 0 {
			return "", 0, fmt.Errorf("COUNT must be non-negative, got %d", count)
		}
	}

	return net.JoinHostPort(args[0], args[1]), count, nil
}

// Emitter writes echo records over TCP.
type Emitter struct {
	opts   Options
	logger *slog.Logger
}

// New creates an emitter. A nil logger falls back to slog.Default.
func New(opts Options, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Connections < 1 {
		opts.Connections = 1
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}
	return &Emitter{opts: opts, logger: logger}
}

// Run dials the target and sends Count records per connection. It returns
// the total number of records written. The connection is established before
// any record is built; a dial failure is returned without sending anything.
func (e *Emitter) Run(ctx context.Context) (int, error) {
	if e.opts.Connections == 1 {
		return e.runConnection(ctx)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
		first error
	)
	for i := 0; i < e.opts.Connections; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := e.runConnection(ctx)
			mu.Lock()
			defer mu.Unlock()
			total += n
			if err != nil && first == nil {
				first = err
			}
		}()
	}
	wg.Wait()
	return total, first
}

func (e *Emitter) runConnection(ctx context.Context) (int, error) {
	dialer := net.Dialer{Timeout: e.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", e.opts.Addr)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to %s: %w", e.opts.Addr, err)
	}
	defer conn.Close()

	e.logger.Debug("connection_established",
		"remote_addr", conn.RemoteAddr().String(),
		"encoding", string(e.opts.Encoding),
		"count", e.opts.Count,
	)

	var limiter *rate.Limiter
	if e.opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(e.opts.Rate), 1)
	}

	enc := codec.NewEncoder(e.opts.Encoding)
	sent := 0
	for i := 0; i < e.opts.Count; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return sent, fmt.Errorf("rate limiter interrupted: %w", err)
			}
		} else if err := ctx.Err(); err != nil {
			return sent, err
		}

		data, err := enc.Encode(models.NewEchoRecord(e.opts.Source, i))
		if err != nil {
			return sent, fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		if _, err := conn.Write(data); err != nil {
			return sent, fmt.Errorf("failed to write record %d: %w", i, err)
		}
		sent++
	}

	return sent, nil
}
