package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/neomorfeo/frontdesk/internal/adapter/fsm"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

func TestStayMachine_AllTransitions(t *testing.T) {
	m := adapter.NewStayMachine()
	ctx := context.Background()

	for _, tr := range domain.StayTransitions {
		dst, err := m.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestRoomMachine_AllTransitions(t *testing.T) {
	m := adapter.NewRoomMachine()
	ctx := context.Background()

	for _, tr := range domain.RoomTransitions {
		dst, err := m.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestStayMachine_InvalidTransition(t *testing.T) {
	m := adapter.NewStayMachine()

	// Can't check out a stay that never checked in.
	_, err := m.Apply(context.Background(), domain.StayPending, domain.StayEventCheckOut)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Entity != "stay" {
		t.Errorf("entity = %q, want %q", trErr.Entity, "stay")
	}
	if trErr.Event != string(domain.StayEventCheckOut) {
		t.Errorf("event = %q, want %q", trErr.Event, domain.StayEventCheckOut)
	}
	if trErr.Current != string(domain.StayPending) {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StayPending)
	}
}

func TestStayMachine_TerminalStatesRejectEverything(t *testing.T) {
	m := adapter.NewStayMachine()
	ctx := context.Background()

	terminal := []domain.StayStatus{domain.StayCheckedOut, domain.StayNoShow, domain.StayCancelled}
	events := []domain.StayEvent{domain.StayEventCheckIn, domain.StayEventCheckOut, domain.StayEventNoShow, domain.StayEventCancel}

	for _, status := range terminal {
		for _, event := range events {
			if _, err := m.Apply(ctx, status, event); err == nil {
				t.Errorf("Apply(%q, %q) succeeded, want TransitionError", status, event)
			}
		}
	}
}

func TestRoomMachine_CannotClaimOccupiedRoom(t *testing.T) {
	m := adapter.NewRoomMachine()

	_, err := m.Apply(context.Background(), domain.RoomOccupied, domain.RoomEventClaim)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Entity != "room" {
		t.Errorf("entity = %q, want %q", trErr.Entity, "room")
	}
}

func TestRoomMachine_UnknownEvent(t *testing.T) {
	m := adapter.NewRoomMachine()

	_, err := m.Apply(context.Background(), domain.RoomVacantClean, domain.RoomEvent("teleport"))
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestRoomMachine_TurnoverCycle(t *testing.T) {
	m := adapter.NewRoomMachine()
	ctx := context.Background()

	steps := []struct {
		event domain.RoomEvent
		want  domain.RoomStatus
	}{
		{domain.RoomEventClaim, domain.RoomOccupied},
		{domain.RoomEventRelease, domain.RoomCheckout},
		{domain.RoomEventMarkCleaned, domain.RoomVacantClean},
		{domain.RoomEventMarkInspected, domain.RoomInspected},
		{domain.RoomEventClaim, domain.RoomOccupied},
	}

	current := domain.RoomVacantClean
	for i, step := range steps {
		next, err := m.Apply(ctx, current, step.event)
		if err != nil {
			t.Fatalf("step %d: Apply(%q, %q): %v", i, current, step.event, err)
		}
		if next != step.want {
			t.Fatalf("step %d: got %q, want %q", i, next, step.want)
		}
		current = next
	}
}
