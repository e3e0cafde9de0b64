package app

import (
	"context"
	"time"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// Timeline is the occupancy grid of a hotel over a date range.
type Timeline struct {
	HotelID    string
	From       time.Time
	To         time.Time
	Floors     []Floor
	Unassigned Unassigned
}

// Floor groups the rooms on one floor.
type Floor struct {
	Number int
	Rooms  []RoomOccupancy
}

// RoomOccupancy is one room with the checked-in stays that overlap the range.
type RoomOccupancy struct {
	Room  domain.Room
	Stays []domain.Stay
}

// Unassigned counts demand not yet placed in a room.
type Unassigned struct {
	Reservations int
	Rooms        int
	PendingStays int
}

// TimelineService builds the read-only occupancy view.
type TimelineService struct {
	store domain.Store
}

// NewTimelineService creates a service over store.
func NewTimelineService(store domain.Store) *TimelineService {
	return &TimelineService{store: store}
}

// Timeline returns active rooms grouped by floor, each with the checked-in
// stays overlapping [from, to), plus counts of unassigned demand.
func (s *TimelineService) Timeline(ctx context.Context, hotelID string, from, to time.Time) (Timeline, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	if !to.After(from) {
		return Timeline{}, &domain.ValidationError{Field: "to", Reason: "must be after from"}
	}

	rooms, err := s.store.Rooms().ListActive(ctx, hotelID)
	if err != nil {
		return Timeline{}, err
	}
	stays, err := s.store.Stays().CheckedInBetween(ctx, hotelID, from, to)
	if err != nil {
		return Timeline{}, err
	}

	byRoom := make(map[string][]domain.Stay, len(stays))
	for _, st := range stays {
		byRoom[st.RoomID] = append(byRoom[st.RoomID], st)
	}

	tl := Timeline{HotelID: hotelID, From: from, To: to}
	for _, room := range rooms {
		if n := len(tl.Floors); n == 0 || tl.Floors[n-1].Number != room.Floor {
			tl.Floors = append(tl.Floors, Floor{Number: room.Floor})
		}
		floor := &tl.Floors[len(tl.Floors)-1]
		floor.Rooms = append(floor.Rooms, RoomOccupancy{Room: room, Stays: byRoom[room.ID]})
	}

	tl.Unassigned.Reservations, tl.Unassigned.Rooms, err = s.store.Reservations().CountArrivals(ctx, hotelID, from, to)
	if err != nil {
		return Timeline{}, err
	}
	tl.Unassigned.PendingStays, err = s.store.Stays().CountUnassigned(ctx, hotelID, from, to)
	if err != nil {
		return Timeline{}, err
	}
	return tl, nil
}
