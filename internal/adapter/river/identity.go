package river

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

var _ domain.IdentityReporter = (*IdentityReporter)(nil)

// IdentityGuest is one guest line of an identity report.
type IdentityGuest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Nationality      string `json:"nationality,omitempty"`
	IDDocumentNumber string `json:"id_document_number,omitempty"`
	IsChild          bool   `json:"is_child"`
}

// IdentityReportArgs is the job that reports a check-in's guests to the authorities.
type IdentityReportArgs struct {
	StayID     string          `json:"stay_id"`
	StayNumber string          `json:"stay_number"`
	HotelID    string          `json:"hotel_id"`
	RoomNumber string          `json:"room_number"`
	CheckIn    string          `json:"check_in"`
	CheckOut   string          `json:"check_out"`
	Guests     []IdentityGuest `json:"guests"`
}

func (IdentityReportArgs) Kind() string { return "identity.report" }

// InsertOpts routes identity reports to their own queue with a longer retry budget.
func (IdentityReportArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueIdentity, MaxAttempts: 10}
}

// IdentityReporter schedules identity reports as River jobs.
type IdentityReporter struct {
	client *Client
}

func NewIdentityReporter(client *Client) *IdentityReporter {
	return &IdentityReporter{client: client}
}

func (r *IdentityReporter) Schedule(ctx context.Context, stay domain.Stay) error {
	args := IdentityReportArgs{
		StayID:     stay.ID,
		StayNumber: stay.StayNumber,
		HotelID:    stay.HotelID,
		RoomNumber: stay.RoomNumber,
		CheckIn:    stay.CheckInDate.Format(domain.DateLayout),
		CheckOut:   stay.CheckOutDate.Format(domain.DateLayout),
		Guests:     make([]IdentityGuest, 0, len(stay.Guests)),
	}
	for _, g := range stay.Guests {
		args.Guests = append(args.Guests, IdentityGuest{
			FirstName:        g.FirstName,
			LastName:         g.LastName,
			Nationality:      g.Nationality,
			IDDocumentNumber: g.IDDocumentNumber,
			IsChild:          g.IsChild,
		})
	}

	if _, err := r.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("enqueuing identity report: %w", err)
	}
	return nil
}
