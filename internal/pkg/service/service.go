// Package service boots the process-wide pieces shared by both binaries:
// logger, tracing, metrics registry and the HTTP server lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-catalog/internal/config"
	infraobs "github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"
	"github.com/Zhima-Mochi/minishop-catalog/internal/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Runtime is a booted process. Close must be called on exit.
type Runtime struct {
	Config   config.Config
	Tel      observability.Observability
	Registry *prometheus.Registry

	zapLogger       *zap.Logger
	system          *zap.Logger
	shutdownTracing telemetry.ShutdownFunc
}

// Bootstrap builds the logger, tracer provider and metric instruments for cfg.
func Bootstrap(ctx context.Context, cfg config.Config) (*Runtime, error) {
	base, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Environment,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("service: logger: %w", err)
	}
	zap.ReplaceGlobals(base)
	system := logging.WithTrace(base, logging.SystemTraceID, logging.SystemSpanID)

	// Export failures surface through the otel error handler, not Shutdown.
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		system.Warn("otel_error", zap.Error(err))
	}))
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.ServiceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		_ = base.Sync()
		return nil, fmt.Errorf("service: tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tel, _ := infraobs.ForService(cfg.ServiceName, base, reg)

	return &Runtime{
		Config:          cfg,
		Tel:             tel,
		Registry:        reg,
		zapLogger:       base,
		system:          system,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Handler mounts /metrics next to app.
func (rt *Runtime) Handler(app http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{Registry: rt.Registry}))
	mux.Handle("/", app)
	return mux
}

// Serve listens on the configured port until ctx is done, then drains
// in-flight requests within the shutdown timeout.
func (rt *Runtime) Serve(ctx context.Context, app http.Handler) error {
	ln, err := net.Listen("tcp", rt.Config.Addr())
	if err != nil {
		return fmt.Errorf("service: listen: %w", err)
	}
	return rt.serve(ctx, ln, app)
}

func (rt *Runtime) serve(ctx context.Context, ln net.Listener, app http.Handler) error {
	server := &http.Server{
		Handler:           rt.Handler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.system.Info("http_server_start",
			zap.String("addr", ln.Addr().String()),
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			rt.system.Error("http_server_error", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.Config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		rt.system.Error("http_server_shutdown_error", zap.Error(err))
		return err
	}
	rt.system.Info("http_server_stopped")
	return nil
}

// Logger is the system logger for process lifecycle events.
func (rt *Runtime) Logger() *zap.Logger { return rt.system }

// Close flushes traces and logs.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(ctx); err != nil {
			rt.system.Warn("tracer_shutdown_error", zap.Error(err))
		}
	}
	_ = rt.zapLogger.Sync()
}
