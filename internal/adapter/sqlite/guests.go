package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// Compile-time check: GuestDirectory implements domain.GuestDirectory.
var _ domain.GuestDirectory = (*GuestDirectory)(nil)

// GuestDirectory is a guest-profile store that merges repeat guests.
type GuestDirectory struct {
	db *sql.DB
}

// NewGuestDirectory creates a directory over db.
func NewGuestDirectory(db *sql.DB) *GuestDirectory {
	return &GuestDirectory{db: db}
}

// FindOrCreate returns the profile matching the guest by identity document,
// then by email and name, then by phone and name, creating one otherwise.
func (d *GuestDirectory) FindOrCreate(ctx context.Context, hotelID string, g domain.Guest) (string, error) {
	doc := strings.TrimSpace(g.IDDocumentNumber)
	email := strings.ToLower(strings.TrimSpace(g.Email))
	phone := strings.TrimSpace(g.Phone)

	if doc != "" {
		if id, err := d.match(ctx,
			`SELECT id FROM guest_profiles WHERE hotel_id = ? AND id_document_number = ? LIMIT 1`,
			hotelID, doc); id != "" || err != nil {
			return id, err
		}
	}
	if email != "" {
		if id, err := d.match(ctx,
			`SELECT id FROM guest_profiles
			 WHERE hotel_id = ? AND email = ? AND lower(first_name) = lower(?) AND lower(last_name) = lower(?)
			 LIMIT 1`,
			hotelID, email, g.FirstName, g.LastName); id != "" || err != nil {
			return id, err
		}
	}
	if phone != "" {
		if id, err := d.match(ctx,
			`SELECT id FROM guest_profiles
			 WHERE hotel_id = ? AND phone = ? AND lower(first_name) = lower(?) AND lower(last_name) = lower(?)
			 LIMIT 1`,
			hotelID, phone, g.FirstName, g.LastName); id != "" || err != nil {
			return id, err
		}
	}

	id := uuid.NewString()
	now := formatTime(time.Now())
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO guest_profiles (id, hotel_id, first_name, last_name, email, phone,
		                            id_document_number, nationality, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, hotelID, g.FirstName, g.LastName, email, phone, doc, g.Nationality, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("inserting guest profile: %w", err)
	}
	return id, nil
}

func (d *GuestDirectory) match(ctx context.Context, query string, args ...any) (string, error) {
	var id string
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("matching guest profile: %w", err)
	}
	return id, nil
}

// AddStayToHistory records a stay against a profile. Recording the same stay twice is a no-op.
func (d *GuestDirectory) AddStayToHistory(ctx context.Context, profileID string, s domain.StaySummary) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO guest_stay_history (profile_id, stay_id, stay_number, hotel_id, room_number,
		                                check_in_date, check_out_date, total_amount, currency, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (profile_id, stay_id) DO NOTHING`,
		profileID, s.StayID, s.StayNumber, s.HotelID, s.RoomNumber,
		formatDate(s.CheckInDate), formatDate(s.CheckOut), s.TotalAmount.String(), s.Currency,
		formatTime(time.Now()),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return domain.ErrGuestNotFound
		}
		return fmt.Errorf("recording stay history: %w", err)
	}
	return nil
}

// History returns the stay numbers recorded for a profile, oldest first.
func (d *GuestDirectory) History(ctx context.Context, profileID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT stay_number FROM guest_stay_history WHERE profile_id = ? ORDER BY recorded_at, stay_number`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stay history: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning stay history: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}
