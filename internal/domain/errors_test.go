package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

func TestTransitionError_Error(t *testing.T) {
	err := &domain.TransitionError{
		Entity:  "stay",
		Event:   string(domain.StayEventCheckOut),
		Current: string(domain.StayPending),
	}
	want := `stay event "check_out" is not valid from state "pending"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRoomUnavailableError_Error(t *testing.T) {
	err := &domain.RoomUnavailableError{RoomID: "r-1", RoomNumber: "101", Status: domain.RoomOccupied}
	want := "room 101 is no longer available (status occupied)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestOverlapError_IncludesConflictContext(t *testing.T) {
	err := &domain.OverlapError{
		RoomNumber: "204",
		StayNumber: "ST-1",
		CheckIn:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
	}
	want := "room 204 is booked by stay ST-1 from 2026-05-01 to 2026-05-04"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorClasses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   error
	}{
		{"room not found", domain.ErrRoomNotFound, domain.ErrNotFound},
		{"wrapped stay not found", fmt.Errorf("loading: %w", domain.ErrStayNotFound), domain.ErrNotFound},
		{"validation", &domain.ValidationError{Field: "guests", Reason: "x"}, domain.ErrValidation},
		{"outstanding balance", &domain.OutstandingBalanceError{Balance: decimal.NewFromInt(500)}, domain.ErrValidation},
		{"room unavailable", &domain.RoomUnavailableError{RoomID: "r"}, domain.ErrConflict},
		{"lock held", &domain.LockHeldError{Key: "room:r"}, domain.ErrConflict},
		{"overlap", &domain.OverlapError{}, domain.ErrConflict},
		{"stale", &domain.StaleStayError{StayID: "s"}, domain.ErrConflict},
	}

	for _, tc := range cases {
		if !errors.Is(tc.err, tc.is) {
			t.Errorf("%s: errors.Is(%v, %v) = false, want true", tc.name, tc.err, tc.is)
		}
	}

	if errors.Is(&domain.LockHeldError{}, domain.ErrValidation) {
		t.Error("LockHeldError should not be a validation error")
	}
}

func TestOutstandingBalanceError_Error(t *testing.T) {
	err := &domain.OutstandingBalanceError{Balance: decimal.NewFromInt(500), Currency: "EUR"}
	want := "balance of 500.00 EUR remains: settle it or provide a reason code"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
