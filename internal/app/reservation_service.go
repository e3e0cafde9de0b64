package app

import (
	"context"
	"strings"
	"time"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// ReservationService imports bookings and prepares their stays.
type ReservationService struct {
	store     domain.Store
	roomTypes domain.RoomTypeRepository
	now       func() time.Time
}

// NewReservationService creates a service with the given adapters.
func NewReservationService(store domain.Store, roomTypes domain.RoomTypeRepository) *ReservationService {
	return &ReservationService{store: store, roomTypes: roomTypes, now: time.Now}
}

// CreateReservationRequest describes a confirmed booking.
type CreateReservationRequest struct {
	HotelID   string
	Number    string
	CheckIn   time.Time
	CheckOut  time.Time
	LeadGuest *domain.Guest
	Rooms     []domain.ReservationRoom
}

// Create stores a confirmed reservation. Room indexes follow the order of req.Rooms.
func (s *ReservationService) Create(ctx context.Context, req CreateReservationRequest) (domain.Reservation, error) {
	if strings.TrimSpace(req.Number) == "" {
		return domain.Reservation{}, &domain.ValidationError{Field: "number", Reason: "is required"}
	}
	if err := domain.ValidateStayDates(req.CheckIn, req.CheckOut); err != nil {
		return domain.Reservation{}, err
	}
	if len(req.Rooms) == 0 {
		return domain.Reservation{}, &domain.ValidationError{Field: "rooms", Reason: "at least one room is required"}
	}

	rooms := make([]domain.ReservationRoom, len(req.Rooms))
	for i, rr := range req.Rooms {
		rt, err := s.roomTypes.GetByID(ctx, rr.RoomTypeID)
		if err != nil {
			return domain.Reservation{}, err
		}
		if rt.HotelID != req.HotelID {
			return domain.Reservation{}, &domain.ValidationError{Field: "room_type_id", Reason: "belongs to another hotel"}
		}
		if rr.RoomID != "" {
			room, err := s.store.Rooms().GetByID(ctx, rr.RoomID)
			if err != nil {
				return domain.Reservation{}, err
			}
			if room.HotelID != req.HotelID || room.RoomTypeID != rt.ID {
				return domain.Reservation{}, &domain.ValidationError{
					Field: "room_id", Reason: "must be a room of the booked type in the same hotel",
				}
			}
		}
		rr.Index = i
		rooms[i] = rr
	}

	now := s.now().UTC()
	res := domain.Reservation{
		ID:           generateID(),
		HotelID:      req.HotelID,
		Number:       strings.TrimSpace(req.Number),
		Status:       domain.ReservationConfirmed,
		CheckInDate:  domain.DateOf(req.CheckIn),
		CheckOutDate: domain.DateOf(req.CheckOut),
		LeadGuest:    req.LeadGuest,
		Rooms:        rooms,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Reservations().Create(ctx, res); err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

// Get returns a reservation by id.
func (s *ReservationService) Get(ctx context.Context, id string) (domain.Reservation, error) {
	return s.store.Reservations().GetByID(ctx, id)
}

// Prepare creates a pending stay for every room of the reservation that
// does not have a live one yet, and returns the live stays by room index.
func (s *ReservationService) Prepare(ctx context.Context, id string) ([]domain.Stay, error) {
	res, err := s.store.Reservations().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != domain.ReservationConfirmed {
		return nil, &domain.TransitionError{Entity: "reservation", Event: "prepare", Current: string(res.Status)}
	}

	existing, err := s.store.Stays().FindByReservation(ctx, res.ID)
	if err != nil {
		return nil, err
	}

	var missing []domain.Stay
	for i := range res.Rooms {
		if _, ok := liveStayFor(existing, i); ok {
			continue
		}
		stay, err := pendingStay(ctx, s.roomTypes, s.store.Rooms(), res, i, s.now())
		if err != nil {
			return nil, err
		}
		missing = append(missing, stay)
	}

	err = s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		for _, stay := range missing {
			if err := tx.Stays().Create(ctx, stay); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	all, err := s.store.Stays().FindByReservation(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	live := make([]domain.Stay, 0, len(res.Rooms))
	for i := range res.Rooms {
		if st, ok := liveStayFor(all, i); ok {
			live = append(live, st)
		}
	}
	return live, nil
}
