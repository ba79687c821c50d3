package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// ServerAddr is the network address to listen on
	ServerAddr string `env:"SERVER_ADDR" default:":8080"`

	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" default:"5s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" default:"5s"`

	// ShutdownTimeout bounds the wait for in-flight requests after ctx is done
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPTransport defines the interface for HTTP handlers that can serve requests.
type HTTPTransport interface {
	http.Handler
}

// Handler wraps handler with the standard middleware: tracing, logging and panic recovery.
func Handler(handler HTTPTransport, log logging.Logger) http.Handler {
	handler = RescueingMiddleware(handler, log)
	handler = LoggingMiddleware(handler, log)
	handler = TracingMiddleware(handler)

	return handler
}

// ListenAndServe serves handler with the standard middleware until ctx is done,
// then shuts the server down gracefully.
func ListenAndServe(ctx context.Context, handler HTTPTransport, cfg HTTPTransportConfig) error {
	log := logging.GetLogger("infra.transport.http")

	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return Serve(ctx, sock, handler, cfg, log)
}

// Serve is ListenAndServe on an existing listener. The listener is closed on return.
func Serve(
	ctx context.Context,
	sock net.Listener,
	handler HTTPTransport,
	cfg HTTPTransportConfig,
	log logging.Logger,
) error {
	//nolint:exhaustruct
	server := &http.Server{
		Handler:           Handler(handler, log),
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)

	go func() {
		log.DebugContext(ctx, "listening", "addr", sock.Addr().String())
		errCh <- server.Serve(sock)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
