package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.EventPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.EventType, stay domain.Stay) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(
			attribute.String("event.type", string(event)),
			attribute.String("stay.id", stay.ID),
			attribute.String("stay.number", stay.StayNumber),
			attribute.String("hotel.id", stay.HotelID),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, event, stay)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// TracingIdentityReporter wraps a domain.IdentityReporter with OpenTelemetry tracing.
type TracingIdentityReporter struct {
	next   domain.IdentityReporter
	tracer trace.Tracer
}

var _ domain.IdentityReporter = (*TracingIdentityReporter)(nil)

func NewTracingIdentityReporter(next domain.IdentityReporter) *TracingIdentityReporter {
	return &TracingIdentityReporter{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingIdentityReporter) Schedule(ctx context.Context, stay domain.Stay) error {
	ctx, span := r.tracer.Start(ctx, "IdentityReporter.Schedule",
		trace.WithAttributes(
			attribute.String("stay.id", stay.ID),
			attribute.Int("stay.guests", len(stay.Guests)),
		),
	)
	defer span.End()

	err := r.next.Schedule(ctx, stay)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
