package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// Compile-time check: StayRepository implements domain.StayRepository.
var _ domain.StayRepository = (*StayRepository)(nil)

// StayRepository implements domain.StayRepository using SQLite. Guests,
// room history, extras and payments live in JSON columns on the stay row.
type StayRepository struct {
	q querier
}

const stayColumns = `id, hotel_id, stay_number, room_id, room_number, room_type_id, reservation_id,
	room_index, check_in_date, check_out_date, actual_check_in, actual_check_out, nights,
	adults, children, guests, status, room_rate, total_amount, paid_amount, balance, currency,
	payment_status, room_history, extras, payments, checkout_reason, notes, version,
	created_at, updated_at`

var terminalStatuses = []any{
	string(domain.StayCheckedOut), string(domain.StayNoShow), string(domain.StayCancelled),
}

// stayDocs holds the JSON-encoded embedded collections of a stay.
type stayDocs struct {
	guests, history, extras, payments string
}

func encodeStayDocs(s domain.Stay) (stayDocs, error) {
	var docs stayDocs
	for _, f := range []struct {
		dst *string
		v   any
	}{
		{&docs.guests, nonNil(s.Guests)},
		{&docs.history, nonNil(s.RoomHistory)},
		{&docs.extras, nonNil(s.Extras)},
		{&docs.payments, nonNil(s.Payments)},
	} {
		b, err := json.Marshal(f.v)
		if err != nil {
			return stayDocs{}, fmt.Errorf("encoding stay: %w", err)
		}
		*f.dst = string(b)
	}
	return docs, nil
}

func (r *StayRepository) Create(ctx context.Context, s domain.Stay) error {
	docs, err := encodeStayDocs(s)
	if err != nil {
		return err
	}
	if s.Version == 0 {
		s.Version = 1
	}
	now := formatTime(time.Now())

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO stays (`+stayColumns+`) VALUES (`+placeholders(31)+`)`,
		s.ID, s.HotelID, s.StayNumber, nullString(s.RoomID), s.RoomNumber, s.RoomTypeID,
		nullString(s.ReservationID), s.RoomIndex,
		formatDate(s.CheckInDate), formatDate(s.CheckOutDate),
		nullTime(s.ActualCheckIn), nullTime(s.ActualCheckOut), s.Nights,
		s.Adults, s.Children, docs.guests, string(s.Status),
		s.RoomRate.String(), s.TotalAmount.String(), s.PaidAmount.String(), s.Balance.String(),
		s.Currency, string(s.PaymentStatus), docs.history, docs.extras, docs.payments,
		string(s.CheckoutReason), s.Notes, s.Version, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return r.uniqueConflict(ctx, s)
		}
		return fmt.Errorf("inserting stay: %w", err)
	}
	return nil
}

func (r *StayRepository) GetByID(ctx context.Context, id string) (domain.Stay, error) {
	return scanStay(r.q.QueryRowContext(ctx,
		`SELECT `+stayColumns+` FROM stays WHERE id = ?`, id,
	))
}

func (r *StayRepository) Update(ctx context.Context, s domain.Stay) (domain.Stay, error) {
	docs, err := encodeStayDocs(s)
	if err != nil {
		return domain.Stay{}, err
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE stays SET room_id = ?, room_number = ?, room_type_id = ?,
		        check_in_date = ?, check_out_date = ?, actual_check_in = ?, actual_check_out = ?,
		        nights = ?, adults = ?, children = ?, guests = ?, status = ?,
		        room_rate = ?, total_amount = ?, paid_amount = ?, balance = ?, currency = ?,
		        payment_status = ?, room_history = ?, extras = ?, payments = ?,
		        checkout_reason = ?, notes = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		nullString(s.RoomID), s.RoomNumber, s.RoomTypeID,
		formatDate(s.CheckInDate), formatDate(s.CheckOutDate),
		nullTime(s.ActualCheckIn), nullTime(s.ActualCheckOut),
		s.Nights, s.Adults, s.Children, docs.guests, string(s.Status),
		s.RoomRate.String(), s.TotalAmount.String(), s.PaidAmount.String(), s.Balance.String(), s.Currency,
		string(s.PaymentStatus), docs.history, docs.extras, docs.payments,
		string(s.CheckoutReason), s.Notes, formatTime(time.Now()),
		s.ID, s.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Stay{}, r.uniqueConflict(ctx, s)
		}
		return domain.Stay{}, fmt.Errorf("updating stay: %w", err)
	}

	if err := r.expectOneRow(ctx, s.ID, result); err != nil {
		return domain.Stay{}, err
	}

	s.Version++
	return s, nil
}

func (r *StayRepository) FindByReservation(ctx context.Context, reservationID string) ([]domain.Stay, error) {
	return r.list(ctx,
		`SELECT `+stayColumns+` FROM stays WHERE reservation_id = ? ORDER BY room_index, created_at`,
		reservationID,
	)
}

func (r *StayRepository) ActiveForRoom(ctx context.Context, roomID string) (domain.Stay, error) {
	return scanStay(r.q.QueryRowContext(ctx,
		`SELECT `+stayColumns+` FROM stays WHERE room_id = ? AND status = ?`,
		roomID, string(domain.StayCheckedIn),
	))
}

func (r *StayRepository) Overlapping(ctx context.Context, roomID string, from, to time.Time, excludeStayID string) ([]domain.Stay, error) {
	args := []any{roomID, formatDate(to), formatDate(from), excludeStayID}
	args = append(args, terminalStatuses...)

	return r.list(ctx,
		`SELECT `+stayColumns+` FROM stays
		 WHERE room_id = ? AND check_in_date < ? AND check_out_date > ? AND id <> ?
		   AND status NOT IN (?, ?, ?)
		 ORDER BY check_in_date`,
		args...,
	)
}

func (r *StayRepository) CheckedInBetween(ctx context.Context, hotelID string, from, to time.Time) ([]domain.Stay, error) {
	return r.list(ctx,
		`SELECT `+stayColumns+` FROM stays
		 WHERE hotel_id = ? AND status = ? AND check_in_date < ? AND check_out_date > ?
		 ORDER BY room_number, check_in_date`,
		hotelID, string(domain.StayCheckedIn), formatDate(to), formatDate(from),
	)
}

func (r *StayRepository) CountUnassigned(ctx context.Context, hotelID string, from, to time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stays
		 WHERE hotel_id = ? AND status = ? AND room_id IS NULL
		   AND check_in_date < ? AND check_out_date > ?`,
		hotelID, string(domain.StayPending), formatDate(to), formatDate(from),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unassigned stays: %w", err)
	}
	return n, nil
}

func (r *StayRepository) AppendGuest(ctx context.Context, stayID string, guest domain.Guest) error {
	encoded, err := json.Marshal(guest)
	if err != nil {
		return fmt.Errorf("encoding guest: %w", err)
	}

	args := []any{string(encoded), formatTime(time.Now()), stayID}
	args = append(args, terminalStatuses...)

	result, err := r.q.ExecContext(ctx,
		`UPDATE stays SET guests = json_insert(guests, '$[#]', json(?)),
		        version = version + 1, updated_at = ?
		 WHERE id = ? AND status NOT IN (?, ?, ?)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("appending guest: %w", err)
	}
	return r.expectOneRow(ctx, stayID, result)
}

func (r *StayRepository) ReplaceGuests(ctx context.Context, stayID string, version int, guests []domain.Guest) error {
	encoded, err := json.Marshal(nonNil(guests))
	if err != nil {
		return fmt.Errorf("encoding guests: %w", err)
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE stays SET guests = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(encoded), formatTime(time.Now()), stayID, version,
	)
	if err != nil {
		return fmt.Errorf("replacing guests: %w", err)
	}
	return r.expectOneRow(ctx, stayID, result)
}

func (r *StayRepository) SetGuestCounts(ctx context.Context, stayID string, adults, children int) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE stays SET adults = ?, children = ?, updated_at = ? WHERE id = ?`,
		adults, children, formatTime(time.Now()), stayID,
	)
	if err != nil {
		return fmt.Errorf("updating guest counts: %w", err)
	}
	return nil
}

// expectOneRow turns a conditional update that matched nothing into either
// ErrStayNotFound or a *StaleStayError.
func (r *StayRepository) expectOneRow(ctx context.Context, stayID string, result sql.Result) error {
	n, err := checkAffected(result)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = r.q.QueryRowContext(ctx, `SELECT 1 FROM stays WHERE id = ?`, stayID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrStayNotFound
	}
	if err != nil {
		return fmt.Errorf("checking stay: %w", err)
	}
	return &domain.StaleStayError{StayID: stayID}
}

// uniqueConflict maps a unique index violation to the conflict it represents.
func (r *StayRepository) uniqueConflict(ctx context.Context, s domain.Stay) error {
	if s.Status == domain.StayCheckedIn && s.RoomID != "" {
		unavailable := &domain.RoomUnavailableError{RoomID: s.RoomID, RoomNumber: s.RoomNumber, Status: domain.RoomOccupied}
		if active, err := r.ActiveForRoom(ctx, s.RoomID); err == nil {
			unavailable.StayNumber = active.StayNumber
		}
		return unavailable
	}
	if s.ReservationID != "" {
		return &domain.StaleStayError{StayID: s.ID}
	}
	return fmt.Errorf("stay number %s already exists", s.StayNumber)
}

func (r *StayRepository) list(ctx context.Context, query string, args ...any) ([]domain.Stay, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stays: %w", err)
	}
	defer rows.Close()

	var stays []domain.Stay
	for rows.Next() {
		s, err := scanStay(rows)
		if err != nil {
			return nil, err
		}
		stays = append(stays, s)
	}
	return stays, rows.Err()
}

func scanStay(row rowScanner) (domain.Stay, error) {
	var s domain.Stay
	var roomID, reservationID, actualIn, actualOut sql.NullString
	var checkIn, checkOut, status, paymentStatus, reason, createdAt, updatedAt string
	var docs stayDocs

	err := row.Scan(&s.ID, &s.HotelID, &s.StayNumber, &roomID, &s.RoomNumber, &s.RoomTypeID,
		&reservationID, &s.RoomIndex, &checkIn, &checkOut, &actualIn, &actualOut, &s.Nights,
		&s.Adults, &s.Children, &docs.guests, &status, &s.RoomRate, &s.TotalAmount,
		&s.PaidAmount, &s.Balance, &s.Currency, &paymentStatus, &docs.history, &docs.extras,
		&docs.payments, &reason, &s.Notes, &s.Version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Stay{}, domain.ErrStayNotFound
		}
		return domain.Stay{}, fmt.Errorf("scanning stay: %w", err)
	}

	for _, f := range []struct {
		src string
		dst any
	}{
		{docs.guests, &s.Guests},
		{docs.history, &s.RoomHistory},
		{docs.extras, &s.Extras},
		{docs.payments, &s.Payments},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return domain.Stay{}, fmt.Errorf("decoding stay %s: %w", s.ID, err)
		}
	}

	s.RoomID = roomID.String
	s.ReservationID = reservationID.String
	s.CheckInDate = parseDate(checkIn)
	s.CheckOutDate = parseDate(checkOut)
	s.ActualCheckIn = parseNullTime(actualIn)
	s.ActualCheckOut = parseNullTime(actualOut)
	s.Status = domain.StayStatus(status)
	s.PaymentStatus = domain.PaymentStatus(paymentStatus)
	s.CheckoutReason = domain.BalanceReason(reason)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)

	return s, nil
}
