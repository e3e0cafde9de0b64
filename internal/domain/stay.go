package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StayStatus represents the lifecycle state of a stay.
type StayStatus string

const (
	StayPending    StayStatus = "pending"
	StayCheckedIn  StayStatus = "checked_in"
	StayCheckedOut StayStatus = "checked_out"
	StayNoShow     StayStatus = "no_show"
	StayCancelled  StayStatus = "cancelled"
)

// IsTerminal reports whether no further lifecycle event can apply.
func (s StayStatus) IsTerminal() bool {
	return s == StayCheckedOut || s == StayNoShow || s == StayCancelled
}

// StayEvent represents an action that triggers a stay state transition.
type StayEvent string

const (
	StayEventCheckIn  StayEvent = "check_in"
	StayEventCheckOut StayEvent = "check_out"
	StayEventNoShow   StayEvent = "no_show"
	StayEventCancel   StayEvent = "cancel"
)

// StayTransitions defines all valid state changes in the stay lifecycle.
var StayTransitions = []Transition[StayStatus, StayEvent]{
	{Event: StayEventCheckIn, Src: StayPending, Dst: StayCheckedIn},
	{Event: StayEventCheckOut, Src: StayCheckedIn, Dst: StayCheckedOut},
	{Event: StayEventNoShow, Src: StayPending, Dst: StayNoShow},
	{Event: StayEventCancel, Src: StayPending, Dst: StayCancelled},
}

// PaymentStatus summarises how much of a stay's total has been collected.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentKind distinguishes money received from money returned.
type PaymentKind string

const (
	PaymentKindPayment PaymentKind = "payment"
	PaymentKindRefund  PaymentKind = "refund"
)

// BalanceReason justifies leaving a non-zero balance on a checked-out stay.
type BalanceReason string

const (
	BalanceCityLedger     BalanceReason = "city_ledger"
	BalanceCompanyBilling BalanceReason = "company_billing"
	BalanceDispute        BalanceReason = "dispute"
	BalanceWriteOff       BalanceReason = "write_off"
	BalanceOther          BalanceReason = "other"
)

// Valid reports whether r is one of the known reason codes.
func (r BalanceReason) Valid() bool {
	switch r {
	case BalanceCityLedger, BalanceCompanyBilling, BalanceDispute, BalanceWriteOff, BalanceOther:
		return true
	}
	return false
}

// Guest is one member of the party staying in a room.
type Guest struct {
	ID               string `json:"id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	IDDocumentNumber string `json:"id_document_number,omitempty"`
	Nationality      string `json:"nationality,omitempty"`
	IsChild          bool   `json:"is_child"`
	IsMain           bool   `json:"is_main"`
	ProfileID        string `json:"profile_id,omitempty"`
}

// IsPlaceholder reports whether the guest carries no usable name.
func (g Guest) IsPlaceholder() bool {
	return strings.TrimSpace(g.FirstName) == "" || strings.TrimSpace(g.LastName) == ""
}

// RoomChange is one entry of a stay's room-move audit log.
type RoomChange struct {
	FromRoomID     string    `json:"from_room_id"`
	FromRoomNumber string    `json:"from_room_number"`
	ToRoomID       string    `json:"to_room_id"`
	ToRoomNumber   string    `json:"to_room_number"`
	Reason         string    `json:"reason,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}

// Extra is a charge posted to a stay on top of the room rate.
type Extra struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Date        time.Time       `json:"date"`
	LedgerTxID  string          `json:"ledger_tx_id,omitempty"`
}

// Amount is unit price times quantity.
func (e Extra) Amount() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Payment is money received for, or refunded from, a stay.
type Payment struct {
	ID           string           `json:"id"`
	Kind         PaymentKind      `json:"kind"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	AmountInBase *decimal.Decimal `json:"amount_in_base,omitempty"`
	Method       string           `json:"method,omitempty"`
	RefundOf     string           `json:"refund_of,omitempty"`
	LedgerTxID   string           `json:"ledger_tx_id,omitempty"`
	PaidAt       time.Time        `json:"paid_at"`
}

// BaseAmount is the amount in the stay currency, falling back to the raw
// amount when no exchange rate was recorded.
func (p Payment) BaseAmount() decimal.Decimal {
	if p.AmountInBase != nil {
		return *p.AmountInBase
	}
	return p.Amount
}

// Stay is one guest party occupying one room for a date range.
type Stay struct {
	ID             string
	HotelID        string
	StayNumber     string
	RoomID         string
	RoomNumber     string
	RoomTypeID     string
	ReservationID  string
	RoomIndex      int
	CheckInDate    time.Time
	CheckOutDate   time.Time
	ActualCheckIn  time.Time
	ActualCheckOut time.Time
	Nights         int
	Adults         int
	Children       int
	Guests         []Guest
	Status         StayStatus
	RoomRate       decimal.Decimal
	TotalAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	Balance        decimal.Decimal
	Currency       string
	PaymentStatus  PaymentStatus
	RoomHistory    []RoomChange
	Extras         []Extra
	Payments       []Payment
	CheckoutReason BalanceReason
	Notes          string
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Recalculate derives total, paid, balance and payment status from the
// room rate, extras and payments. Every mutation of those fields must call it.
func (s *Stay) Recalculate() {
	total := s.RoomRate.Mul(decimal.NewFromInt(int64(s.Nights)))
	for _, e := range s.Extras {
		total = total.Add(e.Amount())
	}

	paid := decimal.Zero
	refunded := false
	for _, p := range s.Payments {
		if p.Kind == PaymentKindRefund {
			paid = paid.Sub(p.BaseAmount())
			refunded = true
			continue
		}
		paid = paid.Add(p.BaseAmount())
	}

	s.TotalAmount = total
	s.PaidAmount = paid
	s.Balance = total.Sub(paid)

	switch {
	case refunded && !paid.IsPositive():
		s.PaymentStatus = PaymentRefunded
	case paid.IsPositive() && paid.GreaterThanOrEqual(total):
		s.PaymentStatus = PaymentPaid
	case paid.IsPositive():
		s.PaymentStatus = PaymentPartial
	default:
		s.PaymentStatus = PaymentPending
	}
}

// CountGuests refreshes the adult and child counts from the guest list.
func (s *Stay) CountGuests() {
	s.Adults, s.Children = 0, 0
	for _, g := range s.Guests {
		if g.IsChild {
			s.Children++
		} else {
			s.Adults++
		}
	}
}

// MainGuest returns the guest flagged as main.
func (s Stay) MainGuest() (Guest, bool) {
	for _, g := range s.Guests {
		if g.IsMain {
			return g, true
		}
	}
	return Guest{}, false
}

// Occupants returns the snapshot written onto the room the stay occupies.
func (s Stay) Occupants() []OccupantSnapshot {
	out := make([]OccupantSnapshot, 0, len(s.Guests))
	for _, g := range s.Guests {
		out = append(out, OccupantSnapshot{FirstName: g.FirstName, LastName: g.LastName, IsMain: g.IsMain})
	}
	return out
}

// FindPayment returns the payment with the given id.
func (s Stay) FindPayment(id string) (Payment, bool) {
	for _, p := range s.Payments {
		if p.ID == id {
			return p, true
		}
	}
	return Payment{}, false
}

// IsRefunded reports whether a refund already references the payment.
func (s Stay) IsRefunded(paymentID string) bool {
	for _, p := range s.Payments {
		if p.Kind == PaymentKindRefund && p.RefundOf == paymentID {
			return true
		}
	}
	return false
}

// NormalizeGuests trims names, requires at least one named guest and makes
// sure exactly one guest is flagged main. The first guest becomes main when
// none is flagged.
func NormalizeGuests(guests []Guest) ([]Guest, error) {
	if len(guests) == 0 {
		return nil, &ValidationError{Field: "guests", Reason: "at least one guest is required"}
	}

	out := make([]Guest, len(guests))
	mains := 0
	for i, g := range guests {
		g.FirstName = strings.TrimSpace(g.FirstName)
		g.LastName = strings.TrimSpace(g.LastName)
		if g.FirstName == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("guests[%d].first_name", i), Reason: "is required"}
		}
		if g.LastName == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("guests[%d].last_name", i), Reason: "is required"}
		}
		if g.IsMain {
			mains++
		}
		out[i] = g
	}

	switch {
	case mains == 0:
		out[0].IsMain = true
	case mains > 1:
		return nil, &ValidationError{Field: "guests", Reason: "exactly one main guest is allowed"}
	}
	return out, nil
}
