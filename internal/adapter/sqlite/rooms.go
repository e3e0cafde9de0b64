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

// Compile-time check: RoomRepository implements domain.RoomRepository.
var _ domain.RoomRepository = (*RoomRepository)(nil)

// RoomRepository implements domain.RoomRepository using SQLite.
type RoomRepository struct {
	q querier
}

const roomColumns = `id, hotel_id, number, floor, room_type_id, status, housekeeping_status, active,
	occupants, reservation_ref, check_in_date, expected_checkout_date, updated_at`

func (r *RoomRepository) Create(ctx context.Context, room domain.Room) error {
	occupants, err := json.Marshal(nonNil(room.Occupants))
	if err != nil {
		return fmt.Errorf("encoding occupants: %w", err)
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (`+placeholders(13)+`)`,
		room.ID, room.HotelID, room.Number, room.Floor, room.RoomTypeID,
		string(room.Status), string(room.Housekeeping), room.Active,
		string(occupants), room.ReservationRef,
		formatDate(room.CheckInDate), formatDate(room.ExpectedCheckout),
		formatTime(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "number", Reason: fmt.Sprintf("room %s already exists", room.Number)}
		}
		return fmt.Errorf("inserting room: %w", err)
	}
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (domain.Room, error) {
	return scanRoom(r.q.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id,
	))
}

func (r *RoomRepository) ListActive(ctx context.Context, hotelID string) ([]domain.Room, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms
		 WHERE hotel_id = ? AND active = 1
		 ORDER BY floor, number`, hotelID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// Claim is a single conditional UPDATE: the status predicate and the
// occupancy write cannot be separated, so two claims on the same room
// cannot both match.
func (r *RoomRepository) Claim(ctx context.Context, req domain.ClaimRequest) (domain.Room, error) {
	if len(req.Expected) == 0 {
		return domain.Room{}, errors.New("claim without expected statuses")
	}

	occupants, err := json.Marshal(nonNil(req.Occupants))
	if err != nil {
		return domain.Room{}, fmt.Errorf("encoding occupants: %w", err)
	}

	args := []any{
		string(domain.RoomOccupied), string(occupants), req.ReservationRef,
		formatDate(req.CheckIn), formatDate(req.ExpectedCheckout), formatTime(time.Now()),
		req.RoomID,
	}
	for _, s := range req.Expected {
		args = append(args, string(s))
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET status = ?, occupants = ?, reservation_ref = ?,
		        check_in_date = ?, expected_checkout_date = ?, updated_at = ?
		 WHERE id = ? AND active = 1 AND status IN (`+placeholders(len(req.Expected))+`)`,
		args...,
	)
	if err != nil {
		return domain.Room{}, fmt.Errorf("claiming room: %w", err)
	}

	n, err := checkAffected(result)
	if err != nil {
		return domain.Room{}, err
	}

	room, err := r.GetByID(ctx, req.RoomID)
	if err != nil {
		return domain.Room{}, err
	}
	if n == 0 {
		return domain.Room{}, &domain.RoomUnavailableError{RoomID: room.ID, RoomNumber: room.Number, Status: room.Status}
	}
	return room, nil
}

func (r *RoomRepository) Release(ctx context.Context, roomID string) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET status = ?, housekeeping_status = ?, occupants = '[]', reservation_ref = '',
		        check_in_date = '', expected_checkout_date = '', updated_at = ?
		 WHERE id = ?`,
		string(domain.RoomCheckout), string(domain.HousekeepingDirty), formatTime(time.Now()), roomID,
	)
	if err != nil {
		return fmt.Errorf("releasing room: %w", err)
	}

	n, err := checkAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (r *RoomRepository) SetStatus(ctx context.Context, roomID string, from, to domain.RoomStatus, hk domain.HousekeepingStatus) (domain.Room, error) {
	result, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET status = ?, housekeeping_status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(to), string(hk), formatTime(time.Now()), roomID, string(from),
	)
	if err != nil {
		return domain.Room{}, fmt.Errorf("updating room status: %w", err)
	}
	return r.afterConditionalUpdate(ctx, roomID, result)
}

func (r *RoomRepository) SetHousekeeping(ctx context.Context, roomID string, allowed []domain.RoomStatus, hk domain.HousekeepingStatus) (domain.Room, error) {
	args := []any{string(hk), formatTime(time.Now()), roomID}
	for _, s := range allowed {
		args = append(args, string(s))
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET housekeeping_status = ?, updated_at = ?
		 WHERE id = ? AND status IN (`+placeholders(len(allowed))+`)`,
		args...,
	)
	if err != nil {
		return domain.Room{}, fmt.Errorf("updating housekeeping status: %w", err)
	}
	return r.afterConditionalUpdate(ctx, roomID, result)
}

func (r *RoomRepository) UpdateOccupancy(ctx context.Context, roomID string, occupants []domain.OccupantSnapshot, expectedCheckout time.Time) error {
	encoded, err := json.Marshal(nonNil(occupants))
	if err != nil {
		return fmt.Errorf("encoding occupants: %w", err)
	}

	_, err = r.q.ExecContext(ctx,
		`UPDATE rooms SET occupants = ?, expected_checkout_date = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(encoded), formatDate(expectedCheckout), formatTime(time.Now()),
		roomID, string(domain.RoomOccupied),
	)
	if err != nil {
		return fmt.Errorf("updating room occupancy: %w", err)
	}
	return nil
}

func (r *RoomRepository) afterConditionalUpdate(ctx context.Context, roomID string, result sql.Result) (domain.Room, error) {
	n, err := checkAffected(result)
	if err != nil {
		return domain.Room{}, err
	}

	room, err := r.GetByID(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if n == 0 {
		return domain.Room{}, &domain.RoomUnavailableError{RoomID: room.ID, RoomNumber: room.Number, Status: room.Status}
	}
	return room, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (domain.Room, error) {
	var room domain.Room
	var status, hk, occupants, checkIn, checkout, updatedAt string

	err := row.Scan(&room.ID, &room.HotelID, &room.Number, &room.Floor, &room.RoomTypeID,
		&status, &hk, &room.Active, &occupants, &room.ReservationRef,
		&checkIn, &checkout, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("scanning room: %w", err)
	}

	if err := json.Unmarshal([]byte(occupants), &room.Occupants); err != nil {
		return domain.Room{}, fmt.Errorf("decoding occupants: %w", err)
	}

	room.Status = domain.RoomStatus(status)
	room.Housekeeping = domain.HousekeepingStatus(hk)
	room.CheckInDate = parseDate(checkIn)
	room.ExpectedCheckout = parseDate(checkout)
	room.UpdatedAt = parseTime(updatedAt)

	return room, nil
}

// nonNil keeps JSON columns as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
