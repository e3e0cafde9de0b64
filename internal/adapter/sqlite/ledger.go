package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// Compile-time check: LedgerRepository implements domain.LedgerRepository.
var _ domain.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository records ledger transactions in the same database as stays,
// so a posting commits or rolls back with the stay it belongs to.
type LedgerRepository struct {
	q querier
}

// Record inserts the entry and returns its transaction id.
func (r *LedgerRepository) Record(ctx context.Context, e domain.LedgerEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO ledger_transactions (id, hotel_id, type, amount, currency, stay_id, room_id,
		                                  description, method, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.HotelID, string(e.Type), e.Amount.String(), e.Currency, e.StayID, e.RoomID,
		e.Description, e.Method, formatTime(e.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("recording ledger transaction: %w", err)
	}
	return e.ID, nil
}

// ListForStay returns the ledger transactions posted for a stay, oldest first.
func (r *LedgerRepository) ListForStay(ctx context.Context, stayID string) ([]domain.LedgerEntry, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, hotel_id, type, amount, currency, stay_id, room_id, description, method, created_at
		 FROM ledger_transactions WHERE stay_id = ? ORDER BY created_at, rowid`, stayID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing ledger transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var typ, createdAt string
		if err := rows.Scan(&e.ID, &e.HotelID, &typ, &e.Amount, &e.Currency, &e.StayID, &e.RoomID,
			&e.Description, &e.Method, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning ledger transaction: %w", err)
		}
		e.Type = domain.LedgerType(typ)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
