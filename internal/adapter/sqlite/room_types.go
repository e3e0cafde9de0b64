package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// Compile-time check: RoomTypeRepository implements domain.RoomTypeRepository.
var _ domain.RoomTypeRepository = (*RoomTypeRepository)(nil)

// RoomTypeRepository implements domain.RoomTypeRepository using SQLite.
type RoomTypeRepository struct {
	db *sql.DB
}

// NewRoomTypeRepository creates a room-type catalogue over db.
func NewRoomTypeRepository(db *sql.DB) *RoomTypeRepository {
	return &RoomTypeRepository{db: db}
}

func (r *RoomTypeRepository) Create(ctx context.Context, rt domain.RoomType) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_types (id, hotel_id, name, capacity, base_rate, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rt.ID, rt.HotelID, rt.Name, rt.Capacity, rt.BaseRate.String(), rt.Currency,
		formatTime(rt.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting room type: %w", err)
	}
	return nil
}

func (r *RoomTypeRepository) GetByID(ctx context.Context, id string) (domain.RoomType, error) {
	var rt domain.RoomType
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, hotel_id, name, capacity, base_rate, currency, created_at
		 FROM room_types WHERE id = ?`, id,
	).Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.Capacity, &rt.BaseRate, &rt.Currency, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RoomType{}, domain.ErrRoomTypeNotFound
		}
		return domain.RoomType{}, fmt.Errorf("scanning room type: %w", err)
	}

	rt.CreatedAt = parseTime(createdAt)
	return rt, nil
}
