// Package proxy hosts the WebSocket endpoints that browser clients
// connect to. Each server owns one listen address and one upstream
// kind: the Doubao server bridges the binary dialogue protocol, the
// GLM server pipes frames through verbatim.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const shutdownTimeout = 5 * time.Second

// Browser demo pages connect from file:// or other origins.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server wraps an http.Server with a named handler set.
type Server struct {
	name    string
	addr    string
	path    string
	handler http.Handler
}

func newServer(name, addr, path string, handler http.Handler) *Server {
	return &Server{name: name, addr: addr, path: path, handler: handler}
}

// Name returns the server kind ("doubao" or "glm").
func (s *Server) Name() string { return s.name }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Path returns the WebSocket endpoint path.
func (s *Server) Path() string { return s.path }

// Handler returns the route handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Serve listens on the configured address and blocks until ctx is
// cancelled or the listener fails. The context is also the base
// context of every connection, so cancelling it asks in-flight
// bridges to finish their upstream sessions.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.handler,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("proxy: server listening", "name", s.name, "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%s server: %w", s.name, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s server shutdown: %w", s.name, err)
	}
	slog.Info("proxy: server stopped", "name", s.name)
	return nil
}
