package otel_test

import (
	"context"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/codes"

	adapter "github.com/neomorfeo/frontdesk/internal/adapter/otel"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

// --- Mock publisher ---

type mockPublisher struct {
	events []domain.EventType
}

func (m *mockPublisher) Publish(_ context.Context, e domain.EventType, _ domain.Stay) error {
	m.events = append(m.events, e)
	return nil
}

type failingPublisher struct{}

func (p *failingPublisher) Publish(_ context.Context, _ domain.EventType, _ domain.Stay) error {
	return fmt.Errorf("publish failed")
}

type mockReporter struct{ calls int }

func (m *mockReporter) Schedule(_ context.Context, _ domain.Stay) error {
	m.calls++
	return nil
}

var sampleStay = domain.Stay{ID: "s-1", StayNumber: "ST-260501-ABCDEF", HotelID: "h-1"}

// --- Tests ---

func TestTracingPublisher_Publish_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockPublisher{}
	pub := adapter.NewTracingPublisher(inner)

	if err := pub.Publish(context.Background(), domain.EventStayCheckedIn, sampleStay); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "EventPublisher.Publish" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "EventPublisher.Publish")
	}

	assertAttribute(t, spans[0], "event.type", "stay.checked_in")
	assertAttribute(t, spans[0], "stay.id", "s-1")
	assertAttribute(t, spans[0], "stay.number", "ST-260501-ABCDEF")

	if len(inner.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(inner.events))
	}
}

func TestTracingPublisher_Publish_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	pub := adapter.NewTracingPublisher(&failingPublisher{})

	err := pub.Publish(context.Background(), domain.EventStayCheckedOut, sampleStay)
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}

func TestTracingIdentityReporter_Schedule(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockReporter{}
	reporter := adapter.NewTracingIdentityReporter(inner)

	if err := reporter.Schedule(context.Background(), sampleStay); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "IdentityReporter.Schedule" {
		t.Fatalf("spans = %v, want one IdentityReporter.Schedule span", spans)
	}
	assertAttribute(t, spans[0], "stay.id", "s-1")
}
