package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel errors for simple conditions without extra context.
// Each not-found error wraps ErrNotFound so callers can match the class.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
	ErrRoomTypeNotFound    = fmt.Errorf("room type %w", ErrNotFound)
	ErrStayNotFound        = fmt.Errorf("stay %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrGuestNotFound       = fmt.Errorf("guest %w", ErrNotFound)
	ErrPaymentNotFound     = fmt.Errorf("payment %w", ErrNotFound)
)

// ValidationError is returned when input is rejected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// OutstandingBalanceError is returned when a checkout would leave a balance
// without settling it or giving a reason code.
type OutstandingBalanceError struct {
	Balance  decimal.Decimal
	Currency string
}

func (e *OutstandingBalanceError) Error() string {
	return fmt.Sprintf("balance of %s %s remains: settle it or provide a reason code",
		e.Balance.StringFixed(2), e.Currency)
}

func (e *OutstandingBalanceError) Is(target error) bool { return target == ErrValidation }

// RoomUnavailableError is returned when a room can no longer be claimed.
// It is retryable: the caller should refresh room state and try again.
type RoomUnavailableError struct {
	RoomID     string
	RoomNumber string
	Status     RoomStatus
	StayNumber string
}

func (e *RoomUnavailableError) Error() string {
	room := e.RoomNumber
	if room == "" {
		room = e.RoomID
	}
	msg := fmt.Sprintf("room %s is no longer available", room)
	if e.Status != "" {
		msg += fmt.Sprintf(" (status %s)", e.Status)
	}
	if e.StayNumber != "" {
		msg += fmt.Sprintf(", occupied by stay %s", e.StayNumber)
	}
	return msg
}

func (e *RoomUnavailableError) Is(target error) bool { return target == ErrConflict }

// LockHeldError is returned when another operation holds the advisory lock.
type LockHeldError struct {
	Key string
}

func (e *LockHeldError) Error() string {
	return fmt.Sprintf("operation in progress, please wait (%s)", e.Key)
}

func (e *LockHeldError) Is(target error) bool { return target == ErrConflict }

// OverlapError is returned when another stay holds the room for part of the requested dates.
type OverlapError struct {
	RoomNumber string
	StayNumber string
	CheckIn    time.Time
	CheckOut   time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("room %s is booked by stay %s from %s to %s",
		e.RoomNumber, e.StayNumber, e.CheckIn.Format(DateLayout), e.CheckOut.Format(DateLayout))
}

func (e *OverlapError) Is(target error) bool { return target == ErrConflict }

// StaleStayError is returned when a stay changed since it was read.
type StaleStayError struct {
	StayID string
}

func (e *StaleStayError) Error() string {
	return fmt.Sprintf("stay %s was modified concurrently, reload and retry", e.StayID)
}

func (e *StaleStayError) Is(target error) bool { return target == ErrConflict }

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Entity  string
	Event   string
	Current string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s event %q is not valid from state %q", e.Entity, e.Event, e.Current)
}
