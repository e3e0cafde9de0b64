package app

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// ExtraRequest describes a charge posted on top of the room rate.
type ExtraRequest struct {
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
	Date        time.Time
}

// PaymentRequest describes money received for a stay. ExchangeRate converts
// Amount into the stay currency and is required when the currencies differ.
type PaymentRequest struct {
	Amount       decimal.Decimal
	Currency     string
	ExchangeRate *decimal.Decimal
	Method       string
}

// AddExtra posts a charge to the ledger and appends it to the stay in one transaction.
func (s *StayService) AddExtra(ctx context.Context, stayID string, req ExtraRequest) (domain.Stay, error) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return domain.Stay{}, &domain.ValidationError{Field: "description", Reason: "is required"}
	}
	if req.Quantity < 1 {
		return domain.Stay{}, &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if req.Date.IsZero() {
		req.Date = domain.DateOf(s.now())
	}

	extra := domain.Extra{
		ID:          generateID(),
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Quantity:    req.Quantity,
		Date:        domain.DateOf(req.Date),
	}

	stay, err := s.post(ctx, stayID, "add_extra", func(tx domain.Repositories, stay *domain.Stay) error {
		txID, err := tx.Ledger().Record(ctx, domain.LedgerEntry{
			HotelID:     stay.HotelID,
			Type:        domain.LedgerCharge,
			Amount:      extra.Amount(),
			Currency:    stay.Currency,
			StayID:      stay.ID,
			RoomID:      stay.RoomID,
			Description: extra.Description,
			CreatedAt:   s.now(),
		})
		if err != nil {
			return err
		}
		extra.LedgerTxID = txID
		stay.Extras = append(stay.Extras, extra)
		return nil
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.afterCommit(ctx, domain.EventStayChargePosted, stay)
	return stay, nil
}

// AddPayment records a payment in the ledger and on the stay in one transaction.
func (s *StayService) AddPayment(ctx context.Context, stayID string, req PaymentRequest) (domain.Stay, error) {
	if !req.Amount.IsPositive() {
		return domain.Stay{}, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if req.ExchangeRate != nil && !req.ExchangeRate.IsPositive() {
		return domain.Stay{}, &domain.ValidationError{Field: "exchange_rate", Reason: "must be positive"}
	}

	stay, err := s.post(ctx, stayID, "add_payment", func(tx domain.Repositories, stay *domain.Stay) error {
		p := domain.Payment{
			ID:       generateID(),
			Kind:     domain.PaymentKindPayment,
			Amount:   req.Amount,
			Currency: strings.ToUpper(req.Currency),
			Method:   req.Method,
			PaidAt:   s.now(),
		}
		if p.Currency == "" {
			p.Currency = stay.Currency
		}
		switch {
		case req.ExchangeRate != nil:
			rate := *req.ExchangeRate
			inBase := req.Amount.Mul(rate).Round(2)
			p.ExchangeRate, p.AmountInBase = &rate, &inBase
		case p.Currency != stay.Currency:
			return &domain.ValidationError{Field: "exchange_rate", Reason: "is required for payments in " + p.Currency}
		}

		txID, err := tx.Ledger().Record(ctx, domain.LedgerEntry{
			HotelID:     stay.HotelID,
			Type:        domain.LedgerPayment,
			Amount:      p.BaseAmount(),
			Currency:    stay.Currency,
			StayID:      stay.ID,
			RoomID:      stay.RoomID,
			Description: "Payment",
			Method:      p.Method,
			CreatedAt:   p.PaidAt,
		})
		if err != nil {
			return err
		}
		p.LedgerTxID = txID
		stay.Payments = append(stay.Payments, p)
		return nil
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.afterCommit(ctx, domain.EventStayPaymentPosted, stay)
	return stay, nil
}

// RefundPayment returns a previously recorded payment in full.
func (s *StayService) RefundPayment(ctx context.Context, stayID, paymentID string) (domain.Stay, error) {
	stay, err := s.post(ctx, stayID, "refund_payment", func(tx domain.Repositories, stay *domain.Stay) error {
		original, ok := stay.FindPayment(paymentID)
		if !ok {
			return domain.ErrPaymentNotFound
		}
		if original.Kind == domain.PaymentKindRefund {
			return &domain.ValidationError{Field: "payment_id", Reason: "refunds cannot be refunded"}
		}
		if stay.IsRefunded(paymentID) {
			return &domain.ValidationError{Field: "payment_id", Reason: "payment was already refunded"}
		}

		refund := domain.Payment{
			ID:           generateID(),
			Kind:         domain.PaymentKindRefund,
			Amount:       original.Amount,
			Currency:     original.Currency,
			ExchangeRate: original.ExchangeRate,
			AmountInBase: original.AmountInBase,
			Method:       original.Method,
			RefundOf:     original.ID,
			PaidAt:       s.now(),
		}
		txID, err := tx.Ledger().Record(ctx, domain.LedgerEntry{
			HotelID:     stay.HotelID,
			Type:        domain.LedgerRefund,
			Amount:      refund.BaseAmount(),
			Currency:    stay.Currency,
			StayID:      stay.ID,
			RoomID:      stay.RoomID,
			Description: "Refund of payment " + original.ID,
			Method:      refund.Method,
			CreatedAt:   refund.PaidAt,
		})
		if err != nil {
			return err
		}
		refund.LedgerTxID = txID
		stay.Payments = append(stay.Payments, refund)
		return nil
	})
	if err != nil {
		return domain.Stay{}, err
	}

	s.afterCommit(ctx, domain.EventStayRefundPosted, stay)
	return stay, nil
}

// post reads the stay inside a transaction, lets fn append to its
// sub-ledgers and writes it back with the totals recalculated.
func (s *StayService) post(ctx context.Context, stayID, action string, fn func(tx domain.Repositories, stay *domain.Stay) error) (domain.Stay, error) {
	var out domain.Stay
	err := s.store.WithinTx(ctx, func(tx domain.Repositories) error {
		stay, err := tx.Stays().GetByID(ctx, stayID)
		if err != nil {
			return err
		}
		if stay.Status.IsTerminal() {
			return notAllowed(stay, action)
		}
		if err := fn(tx, &stay); err != nil {
			return err
		}
		stay.Recalculate()

		out, err = tx.Stays().Update(ctx, stay)
		return err
	})
	return out, err
}
