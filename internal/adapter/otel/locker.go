package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// TracingLocker wraps a domain.Locker with a span per call and counts
// acquisitions refused because another holder owns the lease.
type TracingLocker struct {
	next       domain.Locker
	tracer     trace.Tracer
	contention metric.Int64Counter
}

var _ domain.Locker = (*TracingLocker)(nil)

// NewTracingLocker creates a tracing decorator around the given locker.
func NewTracingLocker(next domain.Locker) (*TracingLocker, error) {
	counter, err := otel.Meter(tracerName).Int64Counter("frontdesk.lock.contention",
		metric.WithDescription("Lock acquisitions refused because the lease was held"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating contention counter: %w", err)
	}
	return &TracingLocker{
		next:       next,
		tracer:     otel.Tracer(tracerName),
		contention: counter,
	}, nil
}

func (l *TracingLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (domain.Lease, error) {
	ctx, span := l.tracer.Start(ctx, "Locker.Acquire",
		trace.WithAttributes(
			attribute.String("lock.key", key),
			attribute.Int64("lock.ttl_ms", ttl.Milliseconds()),
		),
	)
	defer span.End()

	lease, err := l.next.Acquire(ctx, key, ttl)
	var held *domain.LockHeldError
	switch {
	case errors.As(err, &held):
		// Contention is expected; the caller polls.
		span.SetAttributes(attribute.Bool("lock.held", true))
		l.contention.Add(ctx, 1, metric.WithAttributes(attribute.String("lock.key", key)))
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return lease, err
}

func (l *TracingLocker) Release(ctx context.Context, lease domain.Lease) error {
	ctx, span := l.tracer.Start(ctx, "Locker.Release",
		trace.WithAttributes(attribute.String("lock.key", lease.Key)),
	)
	defer span.End()

	err := l.next.Release(ctx, lease)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
