package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dnddice/internal/config"
)

// SessionHandler runs the command loop of one connected client.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// Acceptor listens for Telnet connections and runs each one through a
// SessionHandler on its own goroutine.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	sessions sync.WaitGroup
}

// NewAcceptor creates a Telnet acceptor.
//
// Precondition: handler and logger must be non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	return &Acceptor{cfg: cfg, handler: handler, logger: logger}
}

// ListenAndServe listens on the configured address and serves until ctx is
// done.
//
// Postcondition: Returns nil after ctx is done and every session has ended,
// or the listen error.
func (a *Acceptor) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is done. ln is closed on return.
// Cancelling ctx also cancels every session context.
func (a *Acceptor) Serve(ctx context.Context, ln net.Listener) error {
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	a.logger.Info("telnet acceptor listening", zap.String("addr", ln.Addr().String()))

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			a.logger.Error("accepting connection", zap.Error(err))
			continue
		}
		a.sessions.Add(1)
		go a.handleConn(ctx, raw)
	}

	a.sessions.Wait()
	a.logger.Info("telnet acceptor stopped")
	return nil
}

func (a *Acceptor) handleConn(ctx context.Context, raw net.Conn) {
	defer a.sessions.Done()
	start := time.Now()
	logger := a.logger.With(
		zap.String("session_id", uuid.NewString()),
		zap.String("remote_addr", raw.RemoteAddr().String()),
	)

	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	defer conn.Close()

	// Closing the connection unblocks a pending ReadLine on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	logger.Info("client connected")
	if err := conn.Negotiate(); err != nil {
		logger.Error("telnet negotiation failed", zap.Error(err))
		return
	}

	if err := a.handler.HandleSession(ctx, conn); err != nil {
		logger.Debug("session ended", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	logger.Info("session ended cleanly", zap.Duration("duration", time.Since(start)))
}

// Addr returns the listening address, or "" before Serve starts.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}
