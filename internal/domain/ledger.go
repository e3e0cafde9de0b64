package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerType classifies a ledger transaction.
type LedgerType string

const (
	LedgerCharge     LedgerType = "charge"
	LedgerPayment    LedgerType = "payment"
	LedgerRefund     LedgerType = "refund"
	LedgerAdjustment LedgerType = "adjustment"
)

// LedgerEntry is one financial transaction posted for a stay.
// The stay keeps only the returned transaction id.
type LedgerEntry struct {
	ID          string
	HotelID     string
	Type        LedgerType
	Amount      decimal.Decimal
	Currency    string
	StayID      string
	RoomID      string
	Description string
	Method      string
	CreatedAt   time.Time
}
