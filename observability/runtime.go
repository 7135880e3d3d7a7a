package observability

import (
	"context"
	"runtime"
	"time"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const runtimeMeterName = "xrbtree/runtime"

// StartRuntimeStats observes the go runtime (memory, gc) by the contrib
// instrumentation and the soak worker goroutines by a gauge.
func StartRuntimeStats(interval time.Duration) error {
	return startRuntimeStats(otel.GetMeterProvider(), interval)
}

func startRuntimeStats(mp metric.MeterProvider, interval time.Duration) error {
	meter := mp.Meter(runtimeMeterName, metric.WithInstrumentationVersion(otelruntime.Version()))
	_ = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
		"app.core.goroutines",
		metric.WithDescription(`The application goroutines' info.`),
		metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
			ob.Observe(int64(runtime.NumGoroutine()))
			return nil
		}),
	))
	return otelruntime.Start(
		otelruntime.WithMeterProvider(mp),
		otelruntime.WithMinimumReadMemStatsInterval(interval),
	)
}
