package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// WalkInRequest describes a guest party arriving without a reservation.
type WalkInRequest struct {
	HotelID        string
	RoomID         string
	CheckIn        time.Time
	CheckOut       time.Time
	Guests         []domain.Guest
	Rate           *decimal.Decimal
	InitialPayment *PaymentRequest
	Notes          string
}

// WalkIn checks a party straight into a room. The room is claimed and the
// stay created in one transaction; a concurrent claim on the same room
// yields a *domain.RoomUnavailableError.
func (s *StayService) WalkIn(ctx context.Context, req WalkInRequest) (domain.Stay, error) {
	if err := domain.ValidateStayDates(req.CheckIn, req.CheckOut); err != nil {
		return domain.Stay{}, err
	}
	guests, err := domain.NormalizeGuests(req.Guests)
	if err != nil {
		return domain.Stay{}, err
	}
	if req.Rate != nil && req.Rate.IsNegative() {
		return domain.Stay{}, &domain.ValidationError{Field: "rate", Reason: "must not be negative"}
	}

	room, err := s.store.Rooms().GetByID(ctx, req.RoomID)
	if err != nil {
		return domain.Stay{}, err
	}
	if req.HotelID != "" && room.HotelID != req.HotelID {
		return domain.Stay{}, domain.ErrRoomNotFound
	}
	if !room.IsAvailableForCheckIn() {
		return domain.Stay{}, s.unavailable(ctx, s.store, room)
	}

	rt, err := s.checkCapacity(ctx, room.RoomTypeID, len(guests))
	if err != nil {
		return domain.Stay{}, err
	}

	status, err := s.machine.Apply(ctx, domain.StayPending, domain.StayEventCheckIn)
	if err != nil {
		return domain.Stay{}, err
	}

	s.resolveProfiles(ctx, room.HotelID, guests)

	now := s.now()
	stay := domain.Stay{
		ID:            generateID(),
		HotelID:       room.HotelID,
		StayNumber:    stayNumber(now),
		RoomID:        room.ID,
		RoomNumber:    room.Number,
		RoomTypeID:    room.RoomTypeID,
		CheckInDate:   domain.DateOf(req.CheckIn),
		CheckOutDate:  domain.DateOf(req.CheckOut),
		ActualCheckIn: now,
		Nights:        domain.NightsBetween(req.CheckIn, req.CheckOut),
		Guests:        guests,
		Status:        status,
		RoomRate:      rt.BaseRate,
		Currency:      rt.Currency,
		Notes:         req.Notes,
		Version:       1,
	}
	if req.Rate != nil {
		stay.RoomRate = *req.Rate
	}
	stay.CountGuests()
	stay.Recalculate()

	err = s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		if _, err := tx.Rooms().Claim(ctx, domain.ClaimRequest{
			RoomID:           room.ID,
			Expected:         domain.ClaimableStatuses,
			Occupants:        stay.Occupants(),
			ReservationRef:   stay.StayNumber,
			CheckIn:          stay.CheckInDate,
			ExpectedCheckout: stay.CheckOutDate,
		}); err != nil {
			return err
		}
		return tx.Stays().Create(ctx, stay)
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.logger.InfoContext(ctx, "walk-in checked in",
		"stay_id", stay.ID, "stay_number", stay.StayNumber, "room", stay.RoomNumber)
	s.afterCheckIn(ctx, stay)

	if req.InitialPayment != nil {
		paid, err := s.AddPayment(ctx, stay.ID, *req.InitialPayment)
		if err != nil {
			s.logger.ErrorContext(ctx, "recording initial payment",
				"stay_id", stay.ID, "error", err)
			return stay, nil
		}
		return paid, nil
	}
	return stay, nil
}

// CheckInReservation checks in the stay for one room of a reservation. The
// room's advisory lock is held from the first read to the final write.
// When every remaining room of the reservation is checked in, the
// reservation itself moves to checked_in in the same transaction.
// An empty roomID falls back to the room pre-assigned on the reservation.
func (s *StayService) CheckInReservation(ctx context.Context, reservationID, roomID string, roomIndex int) (domain.Stay, error) {
	if roomID == "" {
		assigned, err := s.assignedRoom(ctx, reservationID, roomIndex)
		if err != nil {
			return domain.Stay{}, err
		}
		roomID = assigned
	}

	var stay domain.Stay
	err := s.withLock(ctx, "room:"+roomID, func() error {
		var err error
		stay, err = s.checkInReservation(ctx, reservationID, roomID, roomIndex)
		return err
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.logger.InfoContext(ctx, "reservation room checked in",
		"stay_id", stay.ID, "reservation_id", reservationID, "room_index", roomIndex, "room", stay.RoomNumber)
	s.afterCheckIn(ctx, stay)
	return stay, nil
}

func (s *StayService) assignedRoom(ctx context.Context, reservationID string, roomIndex int) (string, error) {
	res, err := s.store.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return "", err
	}
	rr, ok := res.Room(roomIndex)
	if !ok || rr.RoomID == "" {
		return "", &domain.ValidationError{Field: "room_id", Reason: "is required when the reservation room has no assigned room"}
	}
	return rr.RoomID, nil
}

func (s *StayService) checkInReservation(ctx context.Context, reservationID, roomID string, roomIndex int) (domain.Stay, error) {
	res, err := s.store.Reservations().GetByID(ctx, reservationID)
	if err != nil {
		return domain.Stay{}, err
	}
	if res.Status != domain.ReservationConfirmed && res.Status != domain.ReservationCheckedIn {
		return domain.Stay{}, &domain.TransitionError{
			Entity: "reservation", Event: string(domain.StayEventCheckIn), Current: string(res.Status),
		}
	}
	if _, ok := res.Room(roomIndex); !ok {
		return domain.Stay{}, &domain.ValidationError{
			Field:  "room_index",
			Reason: fmt.Sprintf("reservation %s has %d rooms", res.Number, len(res.Rooms)),
		}
	}

	room, err := s.store.Rooms().GetByID(ctx, roomID)
	if err != nil {
		return domain.Stay{}, err
	}
	if room.HotelID != res.HotelID {
		return domain.Stay{}, domain.ErrRoomNotFound
	}
	if !room.IsAvailableForCheckIn() {
		return domain.Stay{}, s.unavailable(ctx, s.store, room)
	}

	existing, err := s.store.Stays().FindByReservation(ctx, res.ID)
	if err != nil {
		return domain.Stay{}, err
	}
	stay, found := liveStayFor(existing, roomIndex)
	if !found {
		stay, err = pendingStay(ctx, s.roomTypes, s.store.Rooms(), res, roomIndex, s.now())
		if err != nil {
			return domain.Stay{}, err
		}
	}

	if _, err := s.checkCapacity(ctx, room.RoomTypeID, len(stay.Guests)); err != nil {
		return domain.Stay{}, err
	}
	next, err := s.machine.Apply(ctx, stay.Status, domain.StayEventCheckIn)
	if err != nil {
		return domain.Stay{}, err
	}

	s.resolveProfiles(ctx, res.HotelID, stay.Guests)
	stay.Status = next
	stay.RoomID = room.ID
	stay.RoomNumber = room.Number
	stay.RoomTypeID = room.RoomTypeID
	stay.ActualCheckIn = s.now()
	stay.CountGuests()
	stay.Recalculate()

	err = s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		if _, err := tx.Rooms().Claim(ctx, domain.ClaimRequest{
			RoomID:           room.ID,
			Expected:         domain.ClaimableStatuses,
			Occupants:        stay.Occupants(),
			ReservationRef:   res.Number,
			CheckIn:          stay.CheckInDate,
			ExpectedCheckout: stay.CheckOutDate,
		}); err != nil {
			return err
		}

		if found {
			updated, err := tx.Stays().Update(ctx, stay)
			if err != nil {
				return err
			}
			stay = updated
		} else if err := tx.Stays().Create(ctx, stay); err != nil {
			return err
		}

		stays, err := tx.Stays().FindByReservation(ctx, res.ID)
		if err != nil {
			return err
		}
		if domain.ForwardRollUp(len(res.Rooms), stays).State() != domain.RollUpComplete {
			return nil
		}
		_, err = tx.Reservations().SetStatus(ctx, res.ID,
			[]domain.ReservationStatus{domain.ReservationConfirmed}, domain.ReservationCheckedIn)
		return err
	})
	if err != nil {
		return domain.Stay{}, err
	}
	return stay, nil
}

// afterCheckIn emits the check-in event and schedules the identity report.
func (s *StayService) afterCheckIn(ctx context.Context, stay domain.Stay) {
	s.afterCommit(ctx, domain.EventStayCheckedIn, stay)
	if err := s.identity.Schedule(ctx, stay); err != nil {
		s.logger.ErrorContext(ctx, "scheduling identity report", "stay_id", stay.ID, "error", err)
	}
}

// pendingStay builds the not-yet-persisted stay for one room of a
// reservation. A pre-assigned room is carried onto the stay so later
// overlap checks on that room see it.
func pendingStay(ctx context.Context, roomTypes domain.RoomTypeRepository, rooms domain.RoomRepository, res domain.Reservation, roomIndex int, now time.Time) (domain.Stay, error) {
	rr, _ := res.Room(roomIndex)

	rt, err := roomTypes.GetByID(ctx, rr.RoomTypeID)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("loading room type for room %d: %w", roomIndex, err)
	}

	var roomNumber string
	if rr.RoomID != "" {
		room, err := rooms.GetByID(ctx, rr.RoomID)
		if err != nil {
			return domain.Stay{}, fmt.Errorf("loading assigned room for room %d: %w", roomIndex, err)
		}
		roomNumber = room.Number
	}

	guests := reservationGuests(res, roomIndex)
	for i := range guests {
		if guests[i].ID == "" {
			guests[i].ID = generateID()
		}
	}

	stay := domain.Stay{
		ID:            generateID(),
		HotelID:       res.HotelID,
		StayNumber:    stayNumber(now),
		RoomID:        rr.RoomID,
		RoomNumber:    roomNumber,
		RoomTypeID:    rr.RoomTypeID,
		ReservationID: res.ID,
		RoomIndex:     roomIndex,
		CheckInDate:   res.CheckInDate,
		CheckOutDate:  res.CheckOutDate,
		Nights:        domain.NightsBetween(res.CheckInDate, res.CheckOutDate),
		Guests:        guests,
		Status:        domain.StayPending,
		RoomRate:      rt.BaseRate,
		Currency:      rt.Currency,
		Version:       1,
	}
	if rr.Rate != nil {
		stay.RoomRate = *rr.Rate
	}
	stay.CountGuests()
	stay.Recalculate()
	return stay, nil
}

// reservationGuests returns the guests of a reservation room. A usable
// room-level lead guest is the main guest and the room's named guests
// follow as companions. Without one, the named guests stand on their own,
// and a room with neither gets the reservation's resolved lead guest.
func reservationGuests(res domain.Reservation, roomIndex int) []domain.Guest {
	rr, _ := res.Room(roomIndex)

	var lead *domain.Guest
	if rr.LeadGuest != nil && !rr.LeadGuest.IsPlaceholder() {
		g := *rr.LeadGuest
		g.IsMain = true
		lead = &g
	}

	var named []domain.Guest
	if lead != nil {
		named = append(named, *lead)
	}
	for _, g := range rr.Guests {
		if g.IsPlaceholder() || (lead != nil && sameName(g, *lead)) {
			continue
		}
		if lead != nil {
			g.IsMain = false
		}
		named = append(named, g)
	}
	if guests, err := domain.NormalizeGuests(named); err == nil {
		return guests
	}
	if lead != nil {
		return []domain.Guest{*lead}
	}

	fallback := res.LeadGuestFor(roomIndex)
	fallback.IsMain = true
	return []domain.Guest{fallback}
}

func sameName(a, b domain.Guest) bool {
	return strings.EqualFold(strings.TrimSpace(a.FirstName), strings.TrimSpace(b.FirstName)) &&
		strings.EqualFold(strings.TrimSpace(a.LastName), strings.TrimSpace(b.LastName))
}

// liveStayFor returns the stay of a reservation room that was not cancelled
// or marked no-show.
func liveStayFor(stays []domain.Stay, roomIndex int) (domain.Stay, bool) {
	for _, st := range stays {
		if st.RoomIndex != roomIndex || st.Status == domain.StayCancelled || st.Status == domain.StayNoShow {
			continue
		}
		return st, true
	}
	return domain.Stay{}, false
}
