package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

const tracerName = "github.com/neomorfeo/frontdesk/internal/adapter/otel"

// TracingStore wraps a domain.Store with OpenTelemetry tracing. Units of
// work get a span of their own; room claims, releases and stay writes get
// child spans whether they run inside a transaction or not.
type TracingStore struct {
	next   domain.Store
	tracer trace.Tracer
}

// Compile-time check: TracingStore implements domain.Store.
var _ domain.Store = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.Store) *TracingStore {
	return &TracingStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracingStore) Rooms() domain.RoomRepository {
	return &tracingRooms{RoomRepository: s.next.Rooms(), tracer: s.tracer}
}

func (s *TracingStore) Stays() domain.StayRepository {
	return &tracingStays{StayRepository: s.next.Stays(), tracer: s.tracer}
}

func (s *TracingStore) Reservations() domain.ReservationRepository {
	return s.next.Reservations()
}

func (s *TracingStore) Ledger() domain.LedgerRepository {
	return s.next.Ledger()
}

func (s *TracingStore) WithinTx(ctx context.Context, fn func(tx domain.Repositories) error) error {
	ctx, span := s.tracer.Start(ctx, "Store.WithinTx")
	defer span.End()

	err := s.next.WithinTx(ctx, func(tx domain.Repositories) error {
		return fn(tracingRepositories{next: tx, tracer: s.tracer})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

type tracingRepositories struct {
	next   domain.Repositories
	tracer trace.Tracer
}

func (r tracingRepositories) Rooms() domain.RoomRepository {
	return &tracingRooms{RoomRepository: r.next.Rooms(), tracer: r.tracer}
}

func (r tracingRepositories) Stays() domain.StayRepository {
	return &tracingStays{StayRepository: r.next.Stays(), tracer: r.tracer}
}

func (r tracingRepositories) Reservations() domain.ReservationRepository {
	return r.next.Reservations()
}

func (r tracingRepositories) Ledger() domain.LedgerRepository { return r.next.Ledger() }

// tracingRooms traces the writes that change occupancy. Reads pass through.
type tracingRooms struct {
	domain.RoomRepository
	tracer trace.Tracer
}

func (r *tracingRooms) Claim(ctx context.Context, req domain.ClaimRequest) (domain.Room, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.Claim",
		trace.WithAttributes(
			attribute.String("room.id", req.RoomID),
			attribute.String("room.reservation_ref", req.ReservationRef),
		),
	)
	defer span.End()

	room, err := r.RoomRepository.Claim(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return room, err
	}
	span.SetAttributes(attribute.String("room.number", room.Number))
	return room, nil
}

func (r *tracingRooms) Release(ctx context.Context, roomID string) error {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.Release",
		trace.WithAttributes(attribute.String("room.id", roomID)),
	)
	defer span.End()

	err := r.RoomRepository.Release(ctx, roomID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *tracingRooms) SetStatus(ctx context.Context, roomID string, from, to domain.RoomStatus, hk domain.HousekeepingStatus) (domain.Room, error) {
	ctx, span := r.tracer.Start(ctx, "RoomRepository.SetStatus",
		trace.WithAttributes(
			attribute.String("room.id", roomID),
			attribute.String("room.status.from", string(from)),
			attribute.String("room.status.to", string(to)),
		),
	)
	defer span.End()

	room, err := r.RoomRepository.SetStatus(ctx, roomID, from, to, hk)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return room, err
}

type tracingStays struct {
	domain.StayRepository
	tracer trace.Tracer
}

func (r *tracingStays) Create(ctx context.Context, stay domain.Stay) error {
	ctx, span := r.tracer.Start(ctx, "StayRepository.Create",
		trace.WithAttributes(
			attribute.String("stay.id", stay.ID),
			attribute.String("stay.status", string(stay.Status)),
		),
	)
	defer span.End()

	err := r.StayRepository.Create(ctx, stay)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *tracingStays) Update(ctx context.Context, stay domain.Stay) (domain.Stay, error) {
	ctx, span := r.tracer.Start(ctx, "StayRepository.Update",
		trace.WithAttributes(
			attribute.String("stay.id", stay.ID),
			attribute.String("stay.status", string(stay.Status)),
			attribute.Int("stay.version", stay.Version),
		),
	)
	defer span.End()

	updated, err := r.StayRepository.Update(ctx, stay)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return updated, err
}
