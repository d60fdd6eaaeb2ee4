package httpapi

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dmitrijs2005/erm/internal/logging"
	"github.com/valyala/fasthttp"
)

// Server runs the fasthttp server until its context is cancelled.
type Server struct {
	srv             *fasthttp.Server
	addr            string
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(addr string, handler fasthttp.RequestHandler, logger logging.Logger, shutdownTimeout time.Duration) *Server {
	return &Server{
		srv: &fasthttp.Server{
			Handler:      handler,
			Name:         "erm",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  time.Minute,
		},
		addr:            addr,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and shuts down gracefully when ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server started", "addr", ln.Addr().String())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info(ctx, "shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.srv.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		// Serve may not have registered ln yet.
		_ = ln.Close()
		return <-errCh
	}
}
