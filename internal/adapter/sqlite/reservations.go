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

// Compile-time check: ReservationRepository implements domain.ReservationRepository.
var _ domain.ReservationRepository = (*ReservationRepository)(nil)

// ReservationRepository implements domain.ReservationRepository using SQLite.
type ReservationRepository struct {
	q querier
}

func (r *ReservationRepository) Create(ctx context.Context, res domain.Reservation) error {
	rooms, err := json.Marshal(nonNil(res.Rooms))
	if err != nil {
		return fmt.Errorf("encoding reservation rooms: %w", err)
	}

	var lead any
	if res.LeadGuest != nil {
		b, err := json.Marshal(res.LeadGuest)
		if err != nil {
			return fmt.Errorf("encoding lead guest: %w", err)
		}
		lead = string(b)
	}

	now := formatTime(time.Now())
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO reservations (id, hotel_id, number, status, check_in_date, check_out_date,
		                           lead_guest, rooms, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.HotelID, res.Number, string(res.Status),
		formatDate(res.CheckInDate), formatDate(res.CheckOutDate),
		lead, string(rooms), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "number", Reason: fmt.Sprintf("reservation %s already exists", res.Number)}
		}
		return fmt.Errorf("inserting reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (domain.Reservation, error) {
	var res domain.Reservation
	var status, checkIn, checkOut, rooms, createdAt, updatedAt string
	var lead sql.NullString

	err := r.q.QueryRowContext(ctx,
		`SELECT id, hotel_id, number, status, check_in_date, check_out_date, lead_guest, rooms,
		        created_at, updated_at
		 FROM reservations WHERE id = ?`, id,
	).Scan(&res.ID, &res.HotelID, &res.Number, &status, &checkIn, &checkOut, &lead, &rooms,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("scanning reservation: %w", err)
	}

	if err := json.Unmarshal([]byte(rooms), &res.Rooms); err != nil {
		return domain.Reservation{}, fmt.Errorf("decoding reservation rooms: %w", err)
	}
	if lead.Valid {
		var g domain.Guest
		if err := json.Unmarshal([]byte(lead.String), &g); err != nil {
			return domain.Reservation{}, fmt.Errorf("decoding lead guest: %w", err)
		}
		res.LeadGuest = &g
	}

	res.Status = domain.ReservationStatus(status)
	res.CheckInDate = parseDate(checkIn)
	res.CheckOutDate = parseDate(checkOut)
	res.CreatedAt = parseTime(createdAt)
	res.UpdatedAt = parseTime(updatedAt)
	return res, nil
}

func (r *ReservationRepository) SetStatus(ctx context.Context, id string, from []domain.ReservationStatus, status domain.ReservationStatus) (bool, error) {
	args := []any{string(status), formatTime(time.Now()), id}
	for _, s := range from {
		args = append(args, string(s))
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN (`+placeholders(len(from))+`)`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("updating reservation status: %w", err)
	}

	n, err := checkAffected(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ReservationRepository) ExtendCheckout(ctx context.Context, id string, checkout time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE reservations SET check_out_date = ?, updated_at = ?
		 WHERE id = ? AND check_out_date < ?`,
		formatDate(checkout), formatTime(time.Now()), id, formatDate(checkout),
	)
	if err != nil {
		return fmt.Errorf("extending reservation checkout: %w", err)
	}
	return nil
}

func (r *ReservationRepository) CountArrivals(ctx context.Context, hotelID string, from, to time.Time) (int, int, error) {
	var reservations, rooms int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(json_array_length(rooms)), 0) FROM reservations
		 WHERE hotel_id = ? AND status = ? AND check_in_date < ? AND check_out_date > ?`,
		hotelID, string(domain.ReservationConfirmed), formatDate(to), formatDate(from),
	).Scan(&reservations, &rooms)
	if err != nil {
		return 0, 0, fmt.Errorf("counting arrivals: %w", err)
	}
	return reservations, rooms, nil
}
