package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/taskly/internal/ctxutil"
	"github.com/example/taskly/internal/ports/secondary"
)

const storeScopeName = instrumentationScope + "/store"

// InstrumentedTransactor wraps a Transactor with a span per unit of work and
// taskly.tx.* metrics.
type InstrumentedTransactor struct {
	inner  secondary.Transactor
	tracer trace.Tracer
	count  metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapTransactor instruments inner with the global providers. When telemetry
// is disabled inner is returned unchanged.
func WrapTransactor(inner secondary.Transactor, enabled bool) secondary.Transactor {
	if !enabled {
		return inner
	}
	return NewInstrumentedTransactor(inner, otel.GetTracerProvider(), otel.GetMeterProvider())
}

// NewInstrumentedTransactor instruments inner with explicit providers.
func NewInstrumentedTransactor(inner secondary.Transactor, tp trace.TracerProvider, mp metric.MeterProvider) *InstrumentedTransactor {
	m := mp.Meter(storeScopeName)
	count, _ := m.Int64Counter("taskly.tx.count",
		metric.WithDescription("Store transactions executed"),
	)
	dur, _ := m.Float64Histogram("taskly.tx.duration",
		metric.WithDescription("Store transaction duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("taskly.tx.errors",
		metric.WithDescription("Store transactions that failed"),
	)
	return &InstrumentedTransactor{
		inner:  inner,
		tracer: tp.Tracer(storeScopeName),
		count:  count,
		dur:    dur,
		errs:   errs,
	}
}

// WithinTx runs fn through the wrapped Transactor.
func (t *InstrumentedTransactor) WithinTx(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attrs := []attribute.KeyValue{attribute.String("taskly.tx.name", name)}
	if origin := ctxutil.OriginFromContext(ctx); origin != "" {
		attrs = append(attrs, attribute.String("taskly.origin", origin))
	}

	ctx, span := t.tracer.Start(ctx, "store."+name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()
	t.count.Add(ctx, 1, metric.WithAttributes(attrs...))

	start := time.Now()
	err := t.inner.WithinTx(ctx, name, fn)
	t.dur.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	return err
}

var _ secondary.Transactor = (*InstrumentedTransactor)(nil)
