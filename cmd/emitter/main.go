package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"logdrop/internal/codec"
	"logdrop/internal/emitter"
)

var (
	encodingName string
	source       string
	ratePerSec   float64
	connections  int
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "emitter HOST PORT [COUNT]",
	Short: "emitter - send echo records to a collector over TCP",
	Long: `emitter opens a TCP connection to HOST:PORT and writes the fixed echo
record COUNT times (default 1), with the loop index appended to the message
field. Records are encoded as JSON text or as a MessagePack map, selected
with --encoding.

Example:
  emitter 127.0.0.1 9000 3 --encoding msgpack`,
	Args:          cobra.RangeArgs(2, 3),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, count, err := emitter.ParseTarget(args)
		if err != nil {
			return err
		}

		encoding, err := codec.ParseEncoding(encodingName)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		em := emitter.New(emitter.Options{
			Addr:        addr,
			Count:       count,
			Encoding:    encoding,
			Source:      source,
			Rate:        ratePerSec,
			Connections: connections,
		}, logger)

		start := time.Now()
		sent, err := em.Run(ctx)
		if err != nil {
			return err
		}

		logger.Info("run_complete",
			"sent", sent,
			"connections", connections,
			"encoding", string(encoding),
			"elapsed", time.Since(start).String(),
		)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&encodingName, "encoding", "json", "wire encoding (json or msgpack)")
	rootCmd.Flags().StringVar(&source, "source", "", "override the source field of every record")
	rootCmd.Flags().Float64Var(&ratePerSec, "rate", 0, "records per second per connection (0 = unlimited)")
	rootCmd.Flags().IntVar(&connections, "connections", 1, "parallel connections, each sending COUNT records")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
