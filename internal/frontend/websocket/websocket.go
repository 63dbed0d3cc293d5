// Package websocket serves the formula pipeline to browsers: each text
// message received on the socket is processed and answered with one JSON
// message holding the results.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dnddice/internal/config"
	"github.com/cory-johannsen/dnddice/internal/processor"
)

// MaxMessageSize bounds one incoming message in bytes.
const MaxMessageSize = 4096

// TextProcessor evaluates the formulas embedded in a text.
type TextProcessor interface {
	ProcessText(ctx context.Context, text string) []processor.Result
}

// Response is the JSON message written for every text message received.
type Response struct {
	Text    string             `json:"text"`
	Results []processor.Result `json:"results"`
}

// Handler upgrades requests to WebSocket connections and answers every text
// message with a Response.
type Handler struct {
	processor TextProcessor
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// NewHandler creates a Handler. A nil checkOrigin accepts only same-host
// origins, gorilla's default.
//
// Precondition: proc and logger must be non-nil.
func NewHandler(proc TextProcessor, logger *zap.Logger, checkOrigin func(*http.Request) bool) *Handler {
	return &Handler{
		processor: proc,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP implements http.Handler. The connection is served on the calling
// goroutine and closed when r's context is done.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	logger := h.logger.With(
		zap.String("session_id", uuid.NewString()),
		zap.String("remote_addr", r.RemoteAddr),
	)
	logger.Info("websocket client connected")

	conn.SetReadLimit(MaxMessageSize)
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read ended", zap.Error(err))
			}
			logger.Info("websocket client disconnected")
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		text := strings.TrimSpace(string(msg))
		resp := Response{Text: text, Results: h.processor.ProcessText(ctx, text)}
		if resp.Results == nil {
			resp.Results = []processor.Result{}
		}
		if err := conn.WriteJSON(resp); err != nil {
			logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// Server runs a Handler on an HTTP listener.
type Server struct {
	cfg     config.WebSocketConfig
	handler http.Handler
	logger  *zap.Logger
}

// NewServer creates a Server that mounts handler at cfg.Path.
func NewServer(cfg config.WebSocketConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, handler: handler, logger: logger}
}

// ListenAndServe listens on the configured address and serves until ctx is done.
//
// Postcondition: Returns nil after a clean shutdown, or the listen error.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles HTTP on ln until ctx is done. Request contexts derive from
// ctx, so open sockets are closed on shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, s.handler)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("websocket server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("path", s.cfg.Path),
	)

	select {
	case err := <-errCh:
		return fmt.Errorf("serving websocket: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down websocket server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving websocket: %w", err)
	}
	s.logger.Info("websocket server stopped")
	return nil
}
