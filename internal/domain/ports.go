package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RoomRepository persists rooms. Claim is the only way a room becomes occupied.
type RoomRepository interface {
	Create(ctx context.Context, room Room) error
	GetByID(ctx context.Context, id string) (Room, error)
	ListActive(ctx context.Context, hotelID string) ([]Room, error)
	// Claim occupies the room only if its status is still one of req.Expected.
	// It returns a *RoomUnavailableError when the predicate no longer holds.
	Claim(ctx context.Context, req ClaimRequest) (Room, error)
	Release(ctx context.Context, roomID string) error
	// SetStatus moves the room from one status to another, failing with a
	// *RoomUnavailableError if the room is no longer in from.
	SetStatus(ctx context.Context, roomID string, from, to RoomStatus, hk HousekeepingStatus) (Room, error)
	SetHousekeeping(ctx context.Context, roomID string, allowed []RoomStatus, hk HousekeepingStatus) (Room, error)
	UpdateOccupancy(ctx context.Context, roomID string, occupants []OccupantSnapshot, expectedCheckout time.Time) error
}

// RoomTypeRepository persists the room-type catalogue.
type RoomTypeRepository interface {
	Create(ctx context.Context, rt RoomType) error
	GetByID(ctx context.Context, id string) (RoomType, error)
}

// StayRepository persists stays with their embedded guest list and sub-ledgers.
type StayRepository interface {
	Create(ctx context.Context, stay Stay) error
	GetByID(ctx context.Context, id string) (Stay, error)
	// Update writes the stay if its version is unchanged and returns it with
	// the version bumped. A concurrent writer yields a *StaleStayError.
	Update(ctx context.Context, stay Stay) (Stay, error)
	FindByReservation(ctx context.Context, reservationID string) ([]Stay, error)
	// ActiveForRoom returns the checked-in stay on the room, or ErrStayNotFound.
	ActiveForRoom(ctx context.Context, roomID string) (Stay, error)
	// Overlapping returns non-terminal stays on the room whose dates intersect [from, to).
	Overlapping(ctx context.Context, roomID string, from, to time.Time, excludeStayID string) ([]Stay, error)
	CheckedInBetween(ctx context.Context, hotelID string, from, to time.Time) ([]Stay, error)
	CountUnassigned(ctx context.Context, hotelID string, from, to time.Time) (int, error)
	// AppendGuest pushes a guest onto the list in a single statement.
	AppendGuest(ctx context.Context, stayID string, guest Guest) error
	// ReplaceGuests swaps the guest list if the stay is still at version.
	ReplaceGuests(ctx context.Context, stayID string, version int, guests []Guest) error
	SetGuestCounts(ctx context.Context, stayID string, adults, children int) error
}

// ReservationRepository reads bookings and writes back their aggregate status.
type ReservationRepository interface {
	Create(ctx context.Context, res Reservation) error
	GetByID(ctx context.Context, id string) (Reservation, error)
	// SetStatus moves the reservation to status only from one of from.
	// It reports whether a row changed.
	SetStatus(ctx context.Context, id string, from []ReservationStatus, status ReservationStatus) (bool, error)
	ExtendCheckout(ctx context.Context, id string, checkout time.Time) error
	// CountArrivals counts confirmed reservations overlapping [from, to) and their rooms.
	CountArrivals(ctx context.Context, hotelID string, from, to time.Time) (reservations, rooms int, err error)
}

// LedgerRepository records financial transactions.
type LedgerRepository interface {
	Record(ctx context.Context, entry LedgerEntry) (string, error)
	ListForStay(ctx context.Context, stayID string) ([]LedgerEntry, error)
}

// Repositories groups the repositories that take part in one unit of work.
type Repositories interface {
	Rooms() RoomRepository
	Stays() StayRepository
	Reservations() ReservationRepository
	Ledger() LedgerRepository
}

// Store exposes the repositories and runs units of work atomically:
// either every write made through the transactional repositories commits or none does.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
}

// Lease is a held advisory lock.
type Lease struct {
	Key       string
	Token     string
	ExpiresAt time.Time
}

// Locker is a TTL-bounded advisory lock shared by every process.
type Locker interface {
	// Acquire returns a *LockHeldError if another holder owns a live lease.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
	// Release frees the lease if it is still held with the same token.
	// Releasing an expired or foreign lease is a no-op.
	Release(ctx context.Context, lease Lease) error
}

// StaySummary is the record the CRM keeps of a completed stay.
type StaySummary struct {
	StayID      string
	StayNumber  string
	HotelID     string
	RoomNumber  string
	CheckInDate time.Time
	CheckOut    time.Time
	TotalAmount decimal.Decimal
	Currency    string
}

// GuestDirectory is the guest-profile CRM.
type GuestDirectory interface {
	FindOrCreate(ctx context.Context, hotelID string, guest Guest) (string, error)
	AddStayToHistory(ctx context.Context, profileID string, summary StaySummary) error
}

// EventType names a stay event emitted after commit.
type EventType string

const (
	EventStayCheckedIn     EventType = "stay.checked_in"
	EventStayCheckedOut    EventType = "stay.checked_out"
	EventStayRoomChanged   EventType = "stay.room_changed"
	EventStayExtended      EventType = "stay.extended"
	EventStayChargePosted  EventType = "stay.charge_posted"
	EventStayPaymentPosted EventType = "stay.payment_posted"
	EventStayRefundPosted  EventType = "stay.refund_posted"
	EventStayGuestsChanged EventType = "stay.guests_changed"
	EventStayNoShow        EventType = "stay.no_show"
	EventStayCancelled     EventType = "stay.cancelled"
)

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event EventType, stay Stay) error
}

// Notifier delivers an event payload to the notification bus.
type Notifier interface {
	Emit(ctx context.Context, topic string, payload []byte) error
}

// IdentityReporter schedules the government identity report for a check-in.
type IdentityReporter interface {
	Schedule(ctx context.Context, stay Stay) error
}

// StayMachine validates stay lifecycle events.
type StayMachine interface {
	Apply(ctx context.Context, current StayStatus, event StayEvent) (StayStatus, error)
}

// RoomMachine validates room status events.
type RoomMachine interface {
	Apply(ctx context.Context, current RoomStatus, event RoomEvent) (RoomStatus, error)
}
