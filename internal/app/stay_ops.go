package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// ChangeRoom moves a checked-in stay to another room. The new room is
// claimed before the old one is released, in one transaction, so the stay
// is never left without a room. The new room's advisory lock is held
// throughout, so the move serializes with reservation check-ins to it.
func (s *StayService) ChangeRoom(ctx context.Context, stayID, newRoomID, reason string) (domain.Stay, error) {
	var stay domain.Stay
	err := s.withLock(ctx, "room:"+newRoomID, func() error {
		var err error
		stay, err = s.changeRoom(ctx, stayID, newRoomID, reason)
		return err
	})
	if err != nil {
		return domain.Stay{}, err
	}
	s.afterCommit(ctx, domain.EventStayRoomChanged, stay)
	return stay, nil
}

func (s *StayService) changeRoom(ctx context.Context, stayID, newRoomID, reason string) (domain.Stay, error) {
	stay, err := s.store.Stays().GetByID(ctx, stayID)
	if err != nil {
		return domain.Stay{}, err
	}
	if stay.Status != domain.StayCheckedIn {
		return domain.Stay{}, notAllowed(stay, "change_room")
	}
	if stay.RoomID == newRoomID {
		return domain.Stay{}, &domain.ValidationError{Field: "room_id", Reason: "stay is already in this room"}
	}

	oldRoom, err := s.store.Rooms().GetByID(ctx, stay.RoomID)
	if err != nil {
		return domain.Stay{}, err
	}
	newRoom, err := s.store.Rooms().GetByID(ctx, newRoomID)
	if err != nil {
		return domain.Stay{}, err
	}
	if newRoom.HotelID != stay.HotelID || !newRoom.Active {
		return domain.Stay{}, domain.ErrRoomNotFound
	}

	active, err := s.store.Stays().ActiveForRoom(ctx, newRoom.ID)
	switch {
	case err == nil:
		return domain.Stay{}, &domain.RoomUnavailableError{
			RoomID: newRoom.ID, RoomNumber: newRoom.Number, Status: newRoom.Status, StayNumber: active.StayNumber,
		}
	case !errors.Is(err, domain.ErrStayNotFound):
		return domain.Stay{}, err
	}

	expected := domain.ClaimableStatuses
	if newRoom.Status == domain.RoomOccupied {
		// No checked-in stay references the room, so its occupied flag is stale.
		s.logger.WarnContext(ctx, "reclaiming stale occupied room",
			"room_id", newRoom.ID, "room", newRoom.Number, "stay_id", stay.ID)
		expected = []domain.RoomStatus{domain.RoomOccupied}
	} else if !newRoom.IsAvailableForCheckIn() {
		return domain.Stay{}, &domain.RoomUnavailableError{RoomID: newRoom.ID, RoomNumber: newRoom.Number, Status: newRoom.Status}
	}

	if _, err := s.checkCapacity(ctx, newRoom.RoomTypeID, len(stay.Guests)); err != nil {
		return domain.Stay{}, err
	}

	stay.RoomHistory = append(stay.RoomHistory, domain.RoomChange{
		FromRoomID:     oldRoom.ID,
		FromRoomNumber: oldRoom.Number,
		ToRoomID:       newRoom.ID,
		ToRoomNumber:   newRoom.Number,
		Reason:         reason,
		ChangedAt:      s.now(),
	})
	stay.RoomID = newRoom.ID
	stay.RoomNumber = newRoom.Number
	stay.RoomTypeID = newRoom.RoomTypeID

	err = s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		if _, err := tx.Rooms().Claim(ctx, domain.ClaimRequest{
			RoomID:           newRoom.ID,
			Expected:         expected,
			Occupants:        stay.Occupants(),
			ReservationRef:   oldRoom.ReservationRef,
			CheckIn:          stay.CheckInDate,
			ExpectedCheckout: stay.CheckOutDate,
		}); err != nil {
			return err
		}
		if err := tx.Rooms().Release(ctx, oldRoom.ID); err != nil {
			return err
		}
		updated, err := tx.Stays().Update(ctx, stay)
		if err != nil {
			return err
		}
		stay = updated
		return nil
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.logger.InfoContext(ctx, "stay changed room",
		"stay_id", stay.ID, "from", oldRoom.Number, "to", newRoom.Number)
	return stay, nil
}

// Extend moves a stay's checkout later. The room must be free of other
// stays for the added nights. A new rate applies to the added nights and
// its difference from the room rate is posted as an extra.
func (s *StayService) Extend(ctx context.Context, stayID string, newCheckout time.Time, newRate *decimal.Decimal) (domain.Stay, error) {
	stay, err := s.store.Stays().GetByID(ctx, stayID)
	if err != nil {
		return domain.Stay{}, err
	}
	if stay.Status.IsTerminal() {
		return domain.Stay{}, notAllowed(stay, "extend")
	}

	newCheckout = domain.DateOf(newCheckout)
	if !newCheckout.After(stay.CheckOutDate) {
		return domain.Stay{}, &domain.ValidationError{
			Field:  "check_out_date",
			Reason: "must be after the current check-out date " + stay.CheckOutDate.Format(domain.DateLayout),
		}
	}
	if newRate != nil && newRate.IsNegative() {
		return domain.Stay{}, &domain.ValidationError{Field: "rate", Reason: "must not be negative"}
	}

	if stay.RoomID != "" {
		overlaps, err := s.store.Stays().Overlapping(ctx, stay.RoomID, stay.CheckOutDate, newCheckout, stay.ID)
		if err != nil {
			return domain.Stay{}, err
		}
		if len(overlaps) > 0 {
			o := overlaps[0]
			return domain.Stay{}, &domain.OverlapError{
				RoomNumber: stay.RoomNumber, StayNumber: o.StayNumber, CheckIn: o.CheckInDate, CheckOut: o.CheckOutDate,
			}
		}
	}

	added := domain.NightsBetween(stay.CheckOutDate, newCheckout)
	var adjustment *domain.Extra
	if newRate != nil && !newRate.Equal(stay.RoomRate) {
		adjustment = &domain.Extra{
			ID:          generateID(),
			Description: fmt.Sprintf("Rate adjustment for %d extension nights", added),
			UnitPrice:   newRate.Sub(stay.RoomRate),
			Quantity:    added,
			Date:        newCheckout,
		}
	}

	stay.CheckOutDate = newCheckout
	stay.Nights = domain.NightsBetween(stay.CheckInDate, newCheckout)

	err = s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		if adjustment != nil {
			typ := domain.LedgerCharge
			if adjustment.UnitPrice.IsNegative() {
				typ = domain.LedgerAdjustment
			}
			txID, err := tx.Ledger().Record(ctx, domain.LedgerEntry{
				HotelID:     stay.HotelID,
				Type:        typ,
				Amount:      adjustment.Amount(),
				Currency:    stay.Currency,
				StayID:      stay.ID,
				RoomID:      stay.RoomID,
				Description: adjustment.Description,
				CreatedAt:   s.now(),
			})
			if err != nil {
				return err
			}
			adjustment.LedgerTxID = txID
			stay.Extras = append(stay.Extras, *adjustment)
		}
		stay.Recalculate()

		updated, err := tx.Stays().Update(ctx, stay)
		if err != nil {
			return err
		}
		stay = updated

		if stay.Status == domain.StayCheckedIn {
			if err := tx.Rooms().UpdateOccupancy(ctx, stay.RoomID, stay.Occupants(), newCheckout); err != nil {
				return err
			}
		}
		if stay.ReservationID != "" {
			return tx.Reservations().ExtendCheckout(ctx, stay.ReservationID, newCheckout)
		}
		return nil
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.afterCommit(ctx, domain.EventStayExtended, stay)
	return stay, nil
}

// CheckOutRequest carries how the remaining balance is dealt with.
type CheckOutRequest struct {
	// Settle posts a payment (or refund, for a credit) for the remaining balance.
	Settle bool
	Method string
	// Reason justifies leaving a balance open when Settle is false.
	Reason domain.BalanceReason
}

// CheckOut closes a checked-in stay and releases its room. A remaining
// balance must be settled or justified with a reason code.
func (s *StayService) CheckOut(ctx context.Context, stayID string, req CheckOutRequest) (domain.Stay, error) {
	stay, err := s.store.Stays().GetByID(ctx, stayID)
	if err != nil {
		return domain.Stay{}, err
	}
	next, err := s.machine.Apply(ctx, stay.Status, domain.StayEventCheckOut)
	if err != nil {
		return domain.Stay{}, err
	}

	stay.Recalculate()
	var settlement *domain.Payment
	if !stay.Balance.IsZero() {
		switch {
		case req.Settle:
			settlement = &domain.Payment{
				ID:       generateID(),
				Kind:     domain.PaymentKindPayment,
				Amount:   stay.Balance,
				Currency: stay.Currency,
				Method:   req.Method,
				PaidAt:   s.now(),
			}
			if stay.Balance.IsNegative() {
				settlement.Kind = domain.PaymentKindRefund
				settlement.Amount = stay.Balance.Neg()
			}
		case req.Reason == "":
			return domain.Stay{}, &domain.OutstandingBalanceError{Balance: stay.Balance, Currency: stay.Currency}
		case !req.Reason.Valid():
			return domain.Stay{}, &domain.ValidationError{
				Field:  "reason",
				Reason: "must be one of city_ledger, company_billing, dispute, write_off, other",
			}
		default:
			stay.CheckoutReason = req.Reason
		}
	}

	stay.Status = next
	stay.ActualCheckOut = s.now()

	err = s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		if settlement != nil {
			typ := domain.LedgerPayment
			if settlement.Kind == domain.PaymentKindRefund {
				typ = domain.LedgerRefund
			}
			txID, err := tx.Ledger().Record(ctx, domain.LedgerEntry{
				HotelID:     stay.HotelID,
				Type:        typ,
				Amount:      settlement.Amount,
				Currency:    stay.Currency,
				StayID:      stay.ID,
				RoomID:      stay.RoomID,
				Description: "Checkout settlement",
				Method:      settlement.Method,
				CreatedAt:   settlement.PaidAt,
			})
			if err != nil {
				return err
			}
			settlement.LedgerTxID = txID
			stay.Payments = append(stay.Payments, *settlement)
			stay.Recalculate()
		}

		updated, err := tx.Stays().Update(ctx, stay)
		if err != nil {
			return err
		}
		stay = updated

		if err := tx.Rooms().Release(ctx, stay.RoomID); err != nil {
			return err
		}
		return s.rollUpCheckout(ctx, tx, stay)
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.logger.InfoContext(ctx, "stay checked out",
		"stay_id", stay.ID, "room", stay.RoomNumber, "balance", stay.Balance.String())
	s.afterCommit(ctx, domain.EventStayCheckedOut, stay)
	s.recordHistory(ctx, stay)
	return stay, nil
}

// rollUpCheckout moves the reservation to checked_out once every remaining
// room has checked out.
func (s *StayService) rollUpCheckout(ctx context.Context, tx domain.Repositories, stay domain.Stay) error {
	if stay.ReservationID == "" {
		return nil
	}
	res, err := tx.Reservations().GetByID(ctx, stay.ReservationID)
	if err != nil {
		return err
	}
	stays, err := tx.Stays().FindByReservation(ctx, res.ID)
	if err != nil {
		return err
	}
	if domain.BackwardRollUp(len(res.Rooms), stays).State() != domain.RollUpComplete {
		return nil
	}
	_, err = tx.Reservations().SetStatus(ctx, res.ID,
		[]domain.ReservationStatus{domain.ReservationConfirmed, domain.ReservationCheckedIn},
		domain.ReservationCheckedOut)
	return err
}

// rollUpSideExit re-evaluates the check-in roll-up after a room of the
// reservation dropped out, since the remaining rooms may all be checked in.
func (s *StayService) rollUpSideExit(ctx context.Context, tx domain.Repositories, stay domain.Stay) error {
	if stay.ReservationID == "" {
		return nil
	}
	res, err := tx.Reservations().GetByID(ctx, stay.ReservationID)
	if err != nil {
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
}

// recordHistory adds the completed stay to every linked guest profile.
func (s *StayService) recordHistory(ctx context.Context, stay domain.Stay) {
	summary := domain.StaySummary{
		StayID:      stay.ID,
		StayNumber:  stay.StayNumber,
		HotelID:     stay.HotelID,
		RoomNumber:  stay.RoomNumber,
		CheckInDate: stay.CheckInDate,
		CheckOut:    domain.DateOf(stay.ActualCheckOut),
		TotalAmount: stay.TotalAmount,
		Currency:    stay.Currency,
	}
	for _, g := range stay.Guests {
		if g.ProfileID == "" {
			continue
		}
		if err := s.guests.AddStayToHistory(ctx, g.ProfileID, summary); err != nil {
			s.logger.WarnContext(ctx, "recording guest stay history",
				"stay_id", stay.ID, "profile_id", g.ProfileID, "error", err)
		}
	}
}

// MarkNoShow closes a pending stay whose guests never arrived.
func (s *StayService) MarkNoShow(ctx context.Context, stayID string) (domain.Stay, error) {
	return s.sideExit(ctx, stayID, domain.StayEventNoShow, domain.EventStayNoShow)
}

// Cancel closes a pending stay.
func (s *StayService) Cancel(ctx context.Context, stayID string) (domain.Stay, error) {
	return s.sideExit(ctx, stayID, domain.StayEventCancel, domain.EventStayCancelled)
}

func (s *StayService) sideExit(ctx context.Context, stayID string, event domain.StayEvent, published domain.EventType) (domain.Stay, error) {
	stay, err := s.store.Stays().GetByID(ctx, stayID)
	if err != nil {
		return domain.Stay{}, err
	}
	next, err := s.machine.Apply(ctx, stay.Status, event)
	if err != nil {
		return domain.Stay{}, err
	}
	stay.Status = next

	err = s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		updated, err := tx.Stays().Update(ctx, stay)
		if err != nil {
			return err
		}
		stay = updated
		return s.rollUpSideExit(ctx, tx, stay)
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.afterCommit(ctx, published, stay)
	return stay, nil
}

// UpdateNotes replaces the free-text notes. Notes stay editable after checkout.
func (s *StayService) UpdateNotes(ctx context.Context, stayID, notes string) (domain.Stay, error) {
	stay, err := s.store.Stays().GetByID(ctx, stayID)
	if err != nil {
		return domain.Stay{}, err
	}
	stay.Notes = notes
	return s.store.Stays().Update(ctx, stay)
}
