package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus is the aggregate state mirrored back onto a booking.
type ReservationStatus string

const (
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationCheckedIn  ReservationStatus = "checked_in"
	ReservationCheckedOut ReservationStatus = "checked_out"
	ReservationCancelled  ReservationStatus = "cancelled"
)

// ReservationRoom is one sub-booking of a reservation, one per physical room requested.
type ReservationRoom struct {
	Index      int              `json:"index"`
	RoomTypeID string           `json:"room_type_id"`
	RoomID     string           `json:"room_id,omitempty"`
	LeadGuest  *Guest           `json:"lead_guest,omitempty"`
	Guests     []Guest          `json:"guests,omitempty"`
	Rate       *decimal.Decimal `json:"rate,omitempty"`
}

// Reservation is an external multi-room booking that stays may originate from.
type Reservation struct {
	ID           string
	HotelID      string
	Number       string
	Status       ReservationStatus
	CheckInDate  time.Time
	CheckOutDate time.Time
	LeadGuest    *Guest
	Rooms        []ReservationRoom
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room returns the sub-booking at index.
func (r Reservation) Room(index int) (ReservationRoom, bool) {
	if index < 0 || index >= len(r.Rooms) {
		return ReservationRoom{}, false
	}
	return r.Rooms[index], true
}

// LeadGuestFor resolves who the stay for room index is registered to.
// The room-level lead guest wins, then the reservation-level lead guest,
// then any named guest on the reservation, and finally a synthesized
// placeholder.
func (r Reservation) LeadGuestFor(index int) Guest {
	room, ok := r.Room(index)
	if ok && room.LeadGuest != nil && !room.LeadGuest.IsPlaceholder() {
		return *room.LeadGuest
	}
	if r.LeadGuest != nil && !r.LeadGuest.IsPlaceholder() {
		return *r.LeadGuest
	}
	if ok {
		for _, g := range room.Guests {
			if !g.IsPlaceholder() {
				return g
			}
		}
	}
	for _, rr := range r.Rooms {
		for _, g := range rr.Guests {
			if !g.IsPlaceholder() {
				return g
			}
		}
	}
	return Guest{FirstName: "Guest", LastName: fmt.Sprintf("%s-%d", r.Number, index+1)}
}

// RollUpState is the aggregate progress of a reservation's rooms.
type RollUpState string

const (
	RollUpPartial  RollUpState = "partial"
	RollUpComplete RollUpState = "complete"
)

// RollUp counts how many of a reservation's rooms reached the target
// sub-state. Rooms whose stay was cancelled or marked no-show are dropped
// from the total.
type RollUp struct {
	Total     int
	Processed int
}

// State is complete once every remaining room has been processed.
func (r RollUp) State() RollUpState {
	if r.Total > 0 && r.Processed >= r.Total {
		return RollUpComplete
	}
	return RollUpPartial
}

// ForwardRollUp evaluates the check-in direction: rooms whose stay is checked
// in or already checked out count as processed.
func ForwardRollUp(rooms int, stays []Stay) RollUp {
	return rollUp(rooms, stays, StayCheckedIn, StayCheckedOut)
}

// BackwardRollUp evaluates the check-out direction.
func BackwardRollUp(rooms int, stays []Stay) RollUp {
	return rollUp(rooms, stays, StayCheckedOut)
}

func rollUp(rooms int, stays []Stay, processed ...StayStatus) RollUp {
	dropped := make(map[int]bool)
	live := make(map[int]bool)
	done := make(map[int]bool)
	for _, s := range stays {
		if s.Status == StayCancelled || s.Status == StayNoShow {
			dropped[s.RoomIndex] = true
			continue
		}
		live[s.RoomIndex] = true
		if slices.Contains(processed, s.Status) {
			done[s.RoomIndex] = true
		}
	}

	r := RollUp{Total: rooms, Processed: len(done)}
	for idx := range dropped {
		if !live[idx] {
			r.Total--
		}
	}
	return r
}
