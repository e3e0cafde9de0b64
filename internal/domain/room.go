package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// RoomStatus is the occupancy state of a physical room.
type RoomStatus string

const (
	RoomVacantClean RoomStatus = "vacant_clean"
	RoomVacantDirty RoomStatus = "vacant_dirty"
	RoomOccupied    RoomStatus = "occupied"
	RoomCheckout    RoomStatus = "checkout"
	RoomMaintenance RoomStatus = "maintenance"
	RoomOutOfOrder  RoomStatus = "out_of_order"
	RoomInspected   RoomStatus = "inspected"
)

// HousekeepingStatus tracks cleaning progress independently of occupancy.
type HousekeepingStatus string

const (
	HousekeepingClean     HousekeepingStatus = "clean"
	HousekeepingDirty     HousekeepingStatus = "dirty"
	HousekeepingCleaning  HousekeepingStatus = "cleaning"
	HousekeepingInspected HousekeepingStatus = "inspected"
)

// RoomEvent triggers a room status change.
type RoomEvent string

const (
	RoomEventClaim            RoomEvent = "claim"
	RoomEventRelease          RoomEvent = "release"
	RoomEventMarkDirty        RoomEvent = "mark_dirty"
	RoomEventMarkCleaned      RoomEvent = "mark_cleaned"
	RoomEventMarkInspected    RoomEvent = "mark_inspected"
	RoomEventStartMaintenance RoomEvent = "start_maintenance"
	RoomEventEndMaintenance   RoomEvent = "end_maintenance"
	RoomEventTakeOutOfOrder   RoomEvent = "take_out_of_order"
	RoomEventReturnToService  RoomEvent = "return_to_service"
)

// RoomTransitions defines every valid room status change.
// Claim and release are only ever applied by the stay lifecycle; the rest
// are housekeeping and engineering flows.
var RoomTransitions = []Transition[RoomStatus, RoomEvent]{
	{Event: RoomEventClaim, Src: RoomVacantClean, Dst: RoomOccupied},
	{Event: RoomEventClaim, Src: RoomInspected, Dst: RoomOccupied},
	{Event: RoomEventRelease, Src: RoomOccupied, Dst: RoomCheckout},
	{Event: RoomEventMarkDirty, Src: RoomVacantClean, Dst: RoomVacantDirty},
	{Event: RoomEventMarkDirty, Src: RoomInspected, Dst: RoomVacantDirty},
	{Event: RoomEventMarkCleaned, Src: RoomCheckout, Dst: RoomVacantClean},
	{Event: RoomEventMarkCleaned, Src: RoomVacantDirty, Dst: RoomVacantClean},
	{Event: RoomEventMarkInspected, Src: RoomVacantClean, Dst: RoomInspected},
	{Event: RoomEventStartMaintenance, Src: RoomVacantClean, Dst: RoomMaintenance},
	{Event: RoomEventStartMaintenance, Src: RoomVacantDirty, Dst: RoomMaintenance},
	{Event: RoomEventStartMaintenance, Src: RoomCheckout, Dst: RoomMaintenance},
	{Event: RoomEventStartMaintenance, Src: RoomInspected, Dst: RoomMaintenance},
	{Event: RoomEventEndMaintenance, Src: RoomMaintenance, Dst: RoomVacantDirty},
	{Event: RoomEventTakeOutOfOrder, Src: RoomVacantClean, Dst: RoomOutOfOrder},
	{Event: RoomEventTakeOutOfOrder, Src: RoomVacantDirty, Dst: RoomOutOfOrder},
	{Event: RoomEventTakeOutOfOrder, Src: RoomCheckout, Dst: RoomOutOfOrder},
	{Event: RoomEventTakeOutOfOrder, Src: RoomInspected, Dst: RoomOutOfOrder},
	{Event: RoomEventTakeOutOfOrder, Src: RoomMaintenance, Dst: RoomOutOfOrder},
	{Event: RoomEventReturnToService, Src: RoomOutOfOrder, Dst: RoomVacantDirty},
}

// ClaimableStatuses are the statuses a room may be claimed from at check-in.
var ClaimableStatuses = SourcesOf(RoomTransitions, RoomEventClaim)

// Housekeeping returns the housekeeping status a room has after entering s.
// Statuses that say nothing about cleanliness keep the current value.
func (s RoomStatus) Housekeeping(current HousekeepingStatus) HousekeepingStatus {
	switch s {
	case RoomVacantClean:
		return HousekeepingClean
	case RoomInspected:
		return HousekeepingInspected
	case RoomVacantDirty, RoomCheckout:
		return HousekeepingDirty
	default:
		return current
	}
}

// OccupantSnapshot is the denormalized guest summary stored on an occupied room.
type OccupantSnapshot struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsMain    bool   `json:"is_main"`
}

// RoomType describes a category of rooms and its commercial defaults.
type RoomType struct {
	ID        string
	HotelID   string
	Name      string
	Capacity  int
	BaseRate  decimal.Decimal
	Currency  string
	CreatedAt time.Time
}

// Room is a physical room in a hotel's inventory.
type Room struct {
	ID               string
	HotelID          string
	Number           string
	Floor            int
	RoomTypeID       string
	Status           RoomStatus
	Housekeeping     HousekeepingStatus
	Active           bool
	Occupants        []OccupantSnapshot
	ReservationRef   string
	CheckInDate      time.Time
	ExpectedCheckout time.Time
	UpdatedAt        time.Time
}

// NewRoom creates an active, clean and vacant room.
func NewRoom(id, hotelID, number string, floor int, roomTypeID string) Room {
	return Room{
		ID:           id,
		HotelID:      hotelID,
		Number:       number,
		Floor:        floor,
		RoomTypeID:   roomTypeID,
		Status:       RoomVacantClean,
		Housekeeping: HousekeepingClean,
		Active:       true,
		UpdatedAt:    time.Now().UTC(),
	}
}

// IsAvailableForCheckIn reports whether the room can be claimed by a new stay.
func (r Room) IsAvailableForCheckIn() bool {
	return r.Active && slices.Contains(ClaimableStatuses, r.Status)
}

// ClaimRequest carries everything written to a room in the same update that occupies it.
type ClaimRequest struct {
	RoomID           string
	Expected         []RoomStatus
	Occupants        []OccupantSnapshot
	ReservationRef   string
	CheckIn          time.Time
	ExpectedCheckout time.Time
}
