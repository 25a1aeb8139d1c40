package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"logdrop/internal/codec"
	"logdrop/internal/collector"
	"logdrop/internal/config"
	"logdrop/internal/output"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Setup structured logging
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	encoding, err := codec.ParseEncoding(cfg.Encoding)
	if err != nil {
		log.Fatalf("Invalid encoding: %v", err)
	}

	outputs, err := buildOutputs(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build outputs: %v", err)
	}

	pipe := collector.NewPipeline(outputs, logger)
	pipe.Start()

	server := collector.NewServer(fmt.Sprintf(":%d", cfg.TCPPort), encoding, pipe, logger)
	if err := server.Listen(); err != nil {
		log.Fatalf("Failed to start collector: %v", err)
	}

	logger.Info("collector_started",
		"tcp_port", cfg.TCPPort,
		"encoding", cfg.Encoding,
		"outputs", cfg.Outputs,
	)

	// Optional stats endpoint
	if cfg.StatsHTTPPort > 0 {
		router := collector.NewStatsRouter(pipe)
		go func() {
			addr := fmt.Sprintf(":%d", cfg.StatsHTTPPort)
			logger.Info("stats_listening", "addr", addr)
			if err := http.ListenAndServe(addr, router); err != nil {
				logger.Error("stats_server_error", "error", err.Error())
			}
		}()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("received_shutdown_signal")
		server.Stop()
		pipe.Stop()
		logger.Info("collector_stopped_gracefully")
	case err := <-errChan:
		logger.Error("collector_error", "error", err.Error())
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func buildOutputs(cfg *config.Config, logger *slog.Logger) ([]output.Output, error) {
	var outputs []output.Output
	for _, name := range cfg.Outputs {
		switch name {
		case "null":
			outputs = append(outputs, output.Null{})
		case "file":
			out, err := output.NewFileOutput(cfg.FilePathFormat, cfg.FileLineFormat, logger)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, out)
		case "redis":
			out, err := output.NewRedisOutput(cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisList)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, out)
		case "postgres":
			out, err := output.NewPostgresOutput(cfg.DatabaseURL)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, out)
		default:
			return nil, fmt.Errorf("unknown output %q", name)
		}
	}
	return outputs, nil
}
