package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// StayEventArgs is the job enqueued for every stay event. It carries a
// snapshot of the stay at publish time, so the worker never needs to
// query the database.
type StayEventArgs struct {
	Event         string    `json:"event"`
	StayID        string    `json:"stay_id"`
	StayNumber    string    `json:"stay_number"`
	HotelID       string    `json:"hotel_id"`
	ReservationID string    `json:"reservation_id,omitempty"`
	RoomNumber    string    `json:"room_number,omitempty"`
	Status        string    `json:"status"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Total         string    `json:"total"`
	Balance       string    `json:"balance"`
	Currency      string    `json:"currency"`
	Guests        int       `json:"guests"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (StayEventArgs) Kind() string { return "stay.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
	now    func() time.Time
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

// Publish enqueues a stay event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.EventType, stay domain.Stay) error {
	_, err := p.client.Insert(ctx, StayEventArgs{
		Event:         string(event),
		StayID:        stay.ID,
		StayNumber:    stay.StayNumber,
		HotelID:       stay.HotelID,
		ReservationID: stay.ReservationID,
		RoomNumber:    stay.RoomNumber,
		Status:        string(stay.Status),
		CheckIn:       stay.CheckInDate.Format(domain.DateLayout),
		CheckOut:      stay.CheckOutDate.Format(domain.DateLayout),
		Total:         stay.TotalAmount.StringFixed(2),
		Balance:       stay.Balance.StringFixed(2),
		Currency:      stay.Currency,
		Guests:        len(stay.Guests),
		OccurredAt:    p.now().UTC(),
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing stay event job: %w", err)
	}
	return nil
}
