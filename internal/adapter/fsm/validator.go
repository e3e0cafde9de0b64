package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// Compile-time checks: the two machines implement their domain ports.
var (
	_ domain.StayMachine = (*Machine[domain.StayStatus, domain.StayEvent])(nil)
	_ domain.RoomMachine = (*Machine[domain.RoomStatus, domain.RoomEvent])(nil)
)

// buildEvents converts a transition table into looplab/fsm EventDesc format.
// It consolidates transitions with the same event+destination into a single
// EventDesc with multiple source states (e.g., claim from "vacant_clean"
// and "inspected" both go to "occupied").
func buildEvents[S ~string, E ~string](table []domain.Transition[S, E]) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range table {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Machine validates events against a transition table using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the entity's current state, since looplab/fsm tracks state internally.
type Machine[S ~string, E ~string] struct {
	entity string
	events []loopfsm.EventDesc
}

// NewStayMachine creates the stay lifecycle validator.
func NewStayMachine() *Machine[domain.StayStatus, domain.StayEvent] {
	return &Machine[domain.StayStatus, domain.StayEvent]{
		entity: "stay",
		events: buildEvents(domain.StayTransitions),
	}
}

// NewRoomMachine creates the room status validator.
func NewRoomMachine() *Machine[domain.RoomStatus, domain.RoomEvent] {
	return &Machine[domain.RoomStatus, domain.RoomEvent]{
		entity: "room",
		events: buildEvents(domain.RoomTransitions),
	}
}

// Apply checks if the given event is valid from the current state and
// returns the destination state. Returns a domain.TransitionError if
// the transition is not allowed.
func (m *Machine[S, E]) Apply(ctx context.Context, current S, event E) (S, error) {
	machine := loopfsm.NewFSM(string(current), m.events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Entity:  m.entity,
				Event:   string(event),
				Current: string(current),
			}
		}
		return "", err
	}

	return S(machine.Current()), nil
}
