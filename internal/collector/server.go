package collector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"logdrop/internal/codec"
)

// Server accepts TCP connections and streams their decoded records into the
// pipeline. One goroutine per connection, collected on Stop.
type Server struct {
	addr     string
	encoding codec.Encoding
	pipe     *Pipeline
	logger   *slog.Logger

	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup
}

func NewServer(addr string, encoding codec.Encoding, pipe *Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:     addr,
		encoding: encoding,
		pipe:     pipe,
		logger:   logger,
		quit:     make(chan struct{}),
	}
}

// Listen binds the intake socket. Split from Serve so callers (and tests)
// can learn the bound address before any connection arrives.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start intake listener on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.logger.Info("intake_listening", "addr", listener.Addr().String(), "encoding", string(s.encoding))
	return nil
}

// Addr returns the bound listener address. Only valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until Stop is called.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
			}
			s.logger.Warn("accept_failed", "error", err.Error())
			continue
		}

		s.wg.Add(1)
		go func(conn net.Conn) {
			defer s.wg.Done()
			s.handleConnection(conn)
		}(conn)
	}
}

// handleConnection decodes records off one connection until EOF or a decode
// error, submitting each into the pipeline.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	session := uuid.NewString()
	logger := s.logger.With("session_id", session, "remote_addr", conn.RemoteAddr().String())
	logger.Debug("connection_accepted")

	dec := codec.NewDecoder(s.encoding, bufio.NewReader(conn))
	records := 0
	for {
		rec, err := dec.Decode()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("decode_failed", "error", err.Error())
			}
			break
		}
		s.pipe.Submit(rec)
		records++
	}

	logger.Debug("connection_closed", "records", records)
}

// Stop closes the listener and waits for in-flight connections to finish.
// The pipeline is stopped separately, after Stop returns.
func (s *Server) Stop() {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
}
