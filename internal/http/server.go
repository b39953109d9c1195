package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 15 * time.Second
)

type Server struct {
	Engine *gin.Engine
	srv    *nethttp.Server
}

// NewServer leaves WriteTimeout unset: SSE streams and long backend jobs hold
// responses open for minutes.
func NewServer(addr string, cfg RouterConfig) *Server {
	engine := NewRouter(cfg)
	return &Server{
		Engine: engine,
		srv: &nethttp.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// OnShutdown registers fn to run when the drain starts.
func (s *Server) OnShutdown(fn func()) {
	s.srv.RegisterOnShutdown(fn)
}
