package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/frontdesk/internal/adapter/fsm"
	"github.com/neomorfeo/frontdesk/internal/adapter/sqlite"
	"github.com/neomorfeo/frontdesk/internal/app"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

// --- Fakes ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.EventType
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.EventType, _ domain.Stay) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count(e domain.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, got := range p.events {
		if got == e {
			n++
		}
	}
	return n
}

type recordingIdentity struct {
	mu    sync.Mutex
	stays []string
}

func (r *recordingIdentity) Schedule(_ context.Context, s domain.Stay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stays = append(r.stays, s.ID)
	return nil
}

// --- Fixture ---

var testNow = time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)

type fixture struct {
	store        *sqlite.Store
	directory    *sqlite.GuestDirectory
	locker       *sqlite.Locker
	publisher    *recordingPublisher
	identity     *recordingIdentity
	stays        *app.StayService
	rooms        *app.RoomService
	reservations *app.ReservationService
	timeline     *app.TimelineService
}

func newFixture(t *testing.T, opts ...app.Option) *fixture {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:     store,
		directory: sqlite.NewGuestDirectory(store.DB()),
		locker:    sqlite.NewLocker(store.DB()),
		publisher: &recordingPublisher{},
		identity:  &recordingIdentity{},
	}
	roomTypes := sqlite.NewRoomTypeRepository(store.DB())

	opts = append([]app.Option{app.WithClock(func() time.Time { return testNow })}, opts...)
	f.stays = app.NewStayService(app.StayDeps{
		Store:     store,
		RoomTypes: roomTypes,
		Guests:    f.directory,
		Locker:    f.locker,
		Publisher: f.publisher,
		Identity:  f.identity,
		Machine:   fsm.NewStayMachine(),
	}, opts...)
	f.rooms = app.NewRoomService(store, roomTypes, fsm.NewRoomMachine())
	f.reservations = app.NewReservationService(store, roomTypes)
	f.timeline = app.NewTimelineService(store)
	return f
}

func (f *fixture) mustRoomType(t *testing.T, capacity int, rate string) domain.RoomType {
	t.Helper()
	rt, err := f.rooms.CreateRoomType(context.Background(), app.CreateRoomTypeRequest{
		HotelID:  "h-1",
		Name:     "Double",
		Capacity: capacity,
		BaseRate: decimal.RequireFromString(rate),
		Currency: "TRY",
	})
	if err != nil {
		t.Fatalf("creating room type: %v", err)
	}
	return rt
}

func (f *fixture) mustRoom(t *testing.T, number string, floor int, rt domain.RoomType) domain.Room {
	t.Helper()
	room, err := f.rooms.CreateRoom(context.Background(), "h-1", number, floor, rt.ID)
	if err != nil {
		t.Fatalf("creating room %s: %v", number, err)
	}
	return room
}

func (f *fixture) mustWalkIn(t *testing.T, room domain.Room, guests ...domain.Guest) domain.Stay {
	t.Helper()
	if len(guests) == 0 {
		guests = []domain.Guest{{FirstName: "Ada", LastName: "Lovelace"}}
	}
	stay, err := f.stays.WalkIn(context.Background(), walkIn(room, guests...))
	if err != nil {
		t.Fatalf("walk-in to %s: %v", room.Number, err)
	}
	return stay
}

func (f *fixture) mustGetRoom(t *testing.T, id string) domain.Room {
	t.Helper()
	room, err := f.rooms.GetRoom(context.Background(), id)
	if err != nil {
		t.Fatalf("getting room: %v", err)
	}
	return room
}

func walkIn(room domain.Room, guests ...domain.Guest) app.WalkInRequest {
	return app.WalkInRequest{
		HotelID:  "h-1",
		RoomID:   room.ID,
		CheckIn:  day(1),
		CheckOut: day(3),
		Guests:   guests,
	}
}

// day returns the given day of May 2026.
func day(d int) time.Time {
	return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
