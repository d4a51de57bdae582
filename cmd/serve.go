package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"buddy-mcp/logger"
	"buddy-mcp/mcp"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd represents the serve command structure
type ServeCmd struct {
	Addr      string `help:"Listen address (defaults to server.addr, PORT or :8080)"`
	NoMetrics bool   `name:"no-metrics" help:"Do not expose /metrics"`
}

// Run implements the serve command execution
func (s *ServeCmd) Run(ctx context.Context, cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	var metrics *mcp.Metrics
	if !s.NoMetrics {
		metrics = mcp.NewMetrics()
	}
	srv, cleanup, err := cli.newServer(cfg, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	return serveHTTP(ctx, ln, srv.Handler())
}

// serveHTTP serves h on ln until ctx is cancelled, then drains in-flight
// requests. Event streams observe the same ctx through BaseContext.
func serveHTTP(ctx context.Context, ln net.Listener, h http.Handler) error {
	log := logger.Get()
	httpSrv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("serving MCP over HTTP")
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
