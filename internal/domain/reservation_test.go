package domain_test

import (
	"testing"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

func TestForwardRollUp_CompletesOnlyWhenEveryRoomIsIn(t *testing.T) {
	stays := []domain.Stay{
		{RoomIndex: 0, Status: domain.StayCheckedIn},
		{RoomIndex: 1, Status: domain.StayPending},
		{RoomIndex: 2, Status: domain.StayPending},
	}

	for i := range stays {
		stays[i].Status = domain.StayCheckedIn
		got := domain.ForwardRollUp(3, stays).State()
		want := domain.RollUpPartial
		if i == 2 {
			want = domain.RollUpComplete
		}
		if got != want {
			t.Errorf("after check-in %d: state = %q, want %q", i+1, got, want)
		}
	}
}

func TestForwardRollUp_CancelledRoomLeavesTotal(t *testing.T) {
	stays := []domain.Stay{
		{RoomIndex: 0, Status: domain.StayCheckedIn},
		{RoomIndex: 1, Status: domain.StayCancelled},
	}
	r := domain.ForwardRollUp(2, stays)
	if r.Total != 1 || r.State() != domain.RollUpComplete {
		t.Errorf("roll-up = %+v (%s), want total 1 complete", r, r.State())
	}
}

func TestForwardRollUp_RebookedIndexKeepsTotal(t *testing.T) {
	// Index 0 was cancelled and then re-created; index 1 is still pending.
	stays := []domain.Stay{
		{RoomIndex: 0, Status: domain.StayCancelled},
		{RoomIndex: 0, Status: domain.StayCheckedIn},
		{RoomIndex: 1, Status: domain.StayPending},
	}
	if got := domain.ForwardRollUp(2, stays).State(); got != domain.RollUpPartial {
		t.Errorf("state = %q, want %q", got, domain.RollUpPartial)
	}
}

func TestBackwardRollUp(t *testing.T) {
	stays := []domain.Stay{
		{RoomIndex: 0, Status: domain.StayCheckedOut},
		{RoomIndex: 1, Status: domain.StayCheckedIn},
	}
	if got := domain.BackwardRollUp(2, stays).State(); got != domain.RollUpPartial {
		t.Errorf("state = %q, want %q", got, domain.RollUpPartial)
	}

	stays[1].Status = domain.StayCheckedOut
	if got := domain.BackwardRollUp(2, stays).State(); got != domain.RollUpComplete {
		t.Errorf("state = %q, want %q", got, domain.RollUpComplete)
	}
}

func TestRollUp_NoRoomsNeverCompletes(t *testing.T) {
	if got := (domain.RollUp{}).State(); got != domain.RollUpPartial {
		t.Errorf("state = %q, want %q", got, domain.RollUpPartial)
	}
}

func TestLeadGuestFor_FallbackOrder(t *testing.T) {
	roomLead := &domain.Guest{FirstName: "Room", LastName: "Lead"}
	resLead := &domain.Guest{FirstName: "Res", LastName: "Lead"}
	other := domain.Guest{FirstName: "Any", LastName: "Guest"}

	cases := []struct {
		name string
		res  domain.Reservation
		want string
	}{
		{
			name: "room-level lead wins",
			res: domain.Reservation{LeadGuest: resLead, Rooms: []domain.ReservationRoom{
				{LeadGuest: roomLead, Guests: []domain.Guest{other}},
			}},
			want: "Room",
		},
		{
			name: "reservation lead when room lead is a placeholder",
			res: domain.Reservation{LeadGuest: resLead, Rooms: []domain.ReservationRoom{
				{LeadGuest: &domain.Guest{FirstName: "", LastName: ""}},
			}},
			want: "Res",
		},
		{
			name: "any named guest",
			res: domain.Reservation{Rooms: []domain.ReservationRoom{
				{Guests: []domain.Guest{{FirstName: " "}, other}},
			}},
			want: "Any",
		},
		{
			name: "synthesized placeholder",
			res:  domain.Reservation{Number: "R-77", Rooms: []domain.ReservationRoom{{}}},
			want: "Guest",
		},
	}

	for _, tc := range cases {
		if got := tc.res.LeadGuestFor(0); got.FirstName != tc.want {
			t.Errorf("%s: FirstName = %q, want %q", tc.name, got.FirstName, tc.want)
		}
	}

	placeholder := domain.Reservation{Number: "R-77", Rooms: []domain.ReservationRoom{{}, {}}}.LeadGuestFor(1)
	if placeholder.LastName != "R-77-2" {
		t.Errorf("placeholder LastName = %q, want %q", placeholder.LastName, "R-77-2")
	}
}
