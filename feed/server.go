// Package feed carries keyboard snapshots from a client machine to the
// bridge over TCP. It stands in for a directly attached USB host stack:
// the bridge polls it for the latest snapshot and treats "no client" or
// "no frames yet" as keyboard-absent.
//
// Frames use the hidkey wire format (modifiers, key count, key codes),
// which is self-delimiting, so the stream needs no extra framing. An
// optional shared key gates connections behind an HMAC challenge.
package feed

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/zxbridge/zxbridge/hidkey"
	"github.com/zxbridge/zxbridge/internal/log"
)

// ServerConfig configures the snapshot feed listener.
type ServerConfig struct {
	Addr        string        `help:"Snapshot feed listen address" default:":3246" env:"ZXBRIDGE_FEED_ADDR"`
	Key         string        `help:"Shared key clients must authenticate with; empty disables auth" env:"ZXBRIDGE_FEED_KEY"`
	IdleTimeout time.Duration `help:"Drop a client after this long without a frame; 0 disables" default:"30s" env:"ZXBRIDGE_FEED_IDLE_TIMEOUT"`
}

// Server accepts one feed client at a time and keeps a mailbox with the
// latest snapshot for the bridge's idle loop to poll.
type Server struct {
	cfg    ServerConfig
	logger *slog.Logger
	trace  log.TraceLogger

	ln        net.Listener
	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	latest  hidkey.Snapshot
	have    bool
	serving bool
	closed  bool
}

// NewServer creates a feed server. The trace logger may be a no-op.
func NewServer(cfg ServerConfig, logger *slog.Logger, trace log.TraceLogger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if trace == nil {
		trace = log.NewTrace(nil)
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		trace:  trace,
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the listener is accepting connections.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound listen address, once ready.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Latest implements bridge.Source. The second result is false until a
// connected client has delivered at least one frame, and again after
// the client goes away.
func (s *Server) Latest() (hidkey.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.have
}

// ListenAndServe accepts feed clients until Close. Only one client is
// served at a time; further connections are turned away so two
// keyboards can never interleave frames.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("feed listen: %w", err)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
	s.logger.Info("feed listening", "addr", ln.Addr().String())

	var key []byte
	if s.cfg.Key != "" {
		if key, err = DeriveKey(s.cfg.Key); err != nil {
			return err
		}
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("feed accept: %w", err)
		}

		s.mu.Lock()
		if s.serving {
			s.mu.Unlock()
			s.logger.Warn("rejecting second feed client", "remote", conn.RemoteAddr().String())
			conn.Close()
			continue
		}
		s.serving = true
		s.mu.Unlock()

		go func() {
			s.serveConn(conn, key)
			s.mu.Lock()
			s.serving = false
			s.have = false
			s.mu.Unlock()
		}()
	}
}

func (s *Server) serveConn(conn net.Conn, key []byte) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			s.logger.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}

	r := bufio.NewReader(conn)

	if key != nil {
		magic := make([]byte, len(handshakeMagic))
		if _, err := io.ReadFull(r, magic); err != nil || string(magic) != handshakeMagic {
			s.logger.Warn("feed client skipped handshake", "remote", remote)
			return
		}
		if err := serverHandshake(readWriter{r, conn}, key); err != nil {
			s.logger.Warn("feed auth failed", "remote", remote, "error", err)
			return
		}
	}

	s.logger.Info("feed client connected", "remote", remote)

	var frame [2 + hidkey.MaxKeys]byte
	for {
		if s.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		if _, err := io.ReadFull(r, frame[:2]); err != nil {
			s.logClientGone(remote, err)
			return
		}
		count := int(frame[1])
		if count > hidkey.MaxKeys {
			s.logger.Warn("feed frame oversized, dropping client", "remote", remote, "count", count)
			return
		}
		if _, err := io.ReadFull(r, frame[2:2+count]); err != nil {
			s.logClientGone(remote, err)
			return
		}

		s.trace.Frame(true, frame[:2+count])

		var snap hidkey.Snapshot
		if err := snap.UnmarshalBinary(frame[:2+count]); err != nil {
			s.logger.Warn("feed frame malformed", "remote", remote, "error", err)
			return
		}

		s.mu.Lock()
		s.latest = snap
		s.have = true
		s.mu.Unlock()
	}
}

func (s *Server) logClientGone(remote string, err error) {
	if errors.Is(err, io.EOF) {
		s.logger.Info("feed client disconnected", "remote", remote)
		return
	}
	s.logger.Warn("feed client lost", "remote", remote, "error", err)
}

// Close stops the listener. In-flight clients are dropped by their next
// read deadline.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		return ln.Close()
	}
	return nil
}

// readWriter pairs the buffered reader with the raw connection so the
// handshake reads what the bufio.Reader may already hold.
type readWriter struct {
	io.Reader
	io.Writer
}
