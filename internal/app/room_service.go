package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// RoomService manages the room inventory and housekeeping flows.
type RoomService struct {
	store     domain.Store
	roomTypes domain.RoomTypeRepository
	machine   domain.RoomMachine
}

// NewRoomService creates a service with the given adapters.
func NewRoomService(store domain.Store, roomTypes domain.RoomTypeRepository, machine domain.RoomMachine) *RoomService {
	return &RoomService{
		store:     store,
		roomTypes: roomTypes,
		machine:   machine,
	}
}

// CreateRoomTypeRequest describes a new room category.
type CreateRoomTypeRequest struct {
	HotelID  string
	Name     string
	Capacity int
	BaseRate decimal.Decimal
	Currency string
}

// CreateRoomType adds a room category to a hotel's catalogue.
func (s *RoomService) CreateRoomType(ctx context.Context, req CreateRoomTypeRequest) (domain.RoomType, error) {
	switch {
	case strings.TrimSpace(req.HotelID) == "":
		return domain.RoomType{}, &domain.ValidationError{Field: "hotel_id", Reason: "is required"}
	case strings.TrimSpace(req.Name) == "":
		return domain.RoomType{}, &domain.ValidationError{Field: "name", Reason: "is required"}
	case req.Capacity < 1:
		return domain.RoomType{}, &domain.ValidationError{Field: "capacity", Reason: "must be at least 1"}
	case req.BaseRate.IsNegative():
		return domain.RoomType{}, &domain.ValidationError{Field: "base_rate", Reason: "must not be negative"}
	case len(req.Currency) != 3:
		return domain.RoomType{}, &domain.ValidationError{Field: "currency", Reason: "must be a 3-letter ISO code"}
	}

	rt := domain.RoomType{
		ID:        generateID(),
		HotelID:   req.HotelID,
		Name:      strings.TrimSpace(req.Name),
		Capacity:  req.Capacity,
		BaseRate:  req.BaseRate,
		Currency:  strings.ToUpper(req.Currency),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.roomTypes.Create(ctx, rt); err != nil {
		return domain.RoomType{}, fmt.Errorf("creating room type: %w", err)
	}
	return rt, nil
}

// CreateRoom adds a vacant, clean room to a hotel.
func (s *RoomService) CreateRoom(ctx context.Context, hotelID, number string, floor int, roomTypeID string) (domain.Room, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return domain.Room{}, &domain.ValidationError{Field: "number", Reason: "is required"}
	}

	rt, err := s.roomTypes.GetByID(ctx, roomTypeID)
	if err != nil {
		return domain.Room{}, err
	}
	if rt.HotelID != hotelID {
		return domain.Room{}, &domain.ValidationError{Field: "room_type_id", Reason: "belongs to another hotel"}
	}

	room := domain.NewRoom(generateID(), hotelID, number, floor, roomTypeID)
	if err := s.store.Rooms().Create(ctx, room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

// GetRoom returns a room by id.
func (s *RoomService) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	return s.store.Rooms().GetByID(ctx, id)
}

// ListRooms returns a hotel's active rooms ordered by floor and number.
func (s *RoomService) ListRooms(ctx context.Context, hotelID string) ([]domain.Room, error) {
	return s.store.Rooms().ListActive(ctx, hotelID)
}

// ApplyHousekeeping applies a housekeeping or engineering event to a room.
// Claim and release belong to the stay lifecycle and are rejected here.
func (s *RoomService) ApplyHousekeeping(ctx context.Context, roomID string, event domain.RoomEvent) (domain.Room, error) {
	if event == domain.RoomEventClaim || event == domain.RoomEventRelease {
		return domain.Room{}, &domain.ValidationError{Field: "event", Reason: "occupancy changes go through check-in and checkout"}
	}

	room, err := s.store.Rooms().GetByID(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	next, err := s.machine.Apply(ctx, room.Status, event)
	if err != nil {
		return domain.Room{}, err
	}
	return s.store.Rooms().SetStatus(ctx, roomID, room.Status, next, next.Housekeeping(room.Housekeeping))
}

// StartCleaning marks a vacated room as being cleaned without changing its status.
func (s *RoomService) StartCleaning(ctx context.Context, roomID string) (domain.Room, error) {
	return s.store.Rooms().SetHousekeeping(ctx, roomID,
		[]domain.RoomStatus{domain.RoomVacantDirty, domain.RoomCheckout}, domain.HousekeepingCleaning)
}
