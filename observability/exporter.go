package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/multierr"

	"github.com/benz9527/xrbtree/lib/infra"
)

type ShutdownFunc func(ctx context.Context) error

// NewConsoleMetricsExporter serves for the soak runs and local debugging.
// Metrics are written to w every interval and flushed once more on shutdown.
func NewConsoleMetricsExporter(w io.Writer, interval time.Duration, opts ...stdoutmetric.Option) (ShutdownFunc, error) {
	if w == nil {
		return nil, infra.NewErrorStack("console metrics writer is nil")
	}
	if interval <= 0 {
		return nil, infra.NewErrorStack("console metrics interval must be positive")
	}
	exporter, err := stdoutmetric.New(append([]stdoutmetric.Option{
		stdoutmetric.WithWriter(w),
		stdoutmetric.WithoutTimestamps(),
	}, opts...)...)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "stdout metrics exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(interval),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// NewPrometheusMetricsExporter registers the meter provider into a fresh
// registry and serves it by HTTP on addr at /metrics.
func NewPrometheusMetricsExporter(addr string) (ShutdownFunc, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "prometheus metrics listen "+addr)
	}
	return servePrometheusMetrics(ln)
}

func servePrometheusMetrics(ln net.Listener) (ShutdownFunc, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		_ = ln.Close()
		return nil, infra.WrapErrorStack(err, "prometheus metrics exporter")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		_ = srv.Serve(ln)
	}()

	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return func(ctx context.Context) error {
		err := srv.Shutdown(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return multierr.Append(err, mp.Shutdown(ctx))
	}, nil
}
