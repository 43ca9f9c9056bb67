// Package server runs an http.Handler until its context is cancelled.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
)

// ShutdownTimeout bounds the graceful drain of in-flight requests.
const ShutdownTimeout = 15 * time.Second

// Server wraps http.Server with graceful shutdown. TLS is terminated in front
// of it.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

// New creates a server for handler listening on port.
func New(handler http.Handler, port string, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.ConnectionError("failed to listen", err).WithContext("addr", s.srv.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then drains in-flight
// requests for up to ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	s.logger.Info("Server started", logging.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.InternalError("server stopped unexpectedly", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.InternalError("graceful shutdown failed", err)
	}
	s.logger.Info("Server stopped")
	return nil
}
