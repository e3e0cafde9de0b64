package http

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/frontdesk/internal/app"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// Money travels as a decimal string with two fractional digits.
func money(d decimal.Decimal) string { return d.StringFixed(2) }

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, &domain.ValidationError{Field: field, Reason: "must be a decimal amount"}
	}
	return d, nil
}

// parseOptionalMoney treats an empty string as absent.
func parseOptionalMoney(field, value string) (*decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := parseMoney(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// --- Room types and rooms ---

// RoomTypeResponse is the API representation of a room type.
type RoomTypeResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	HotelID   string `json:"hotel_id" doc:"Owning hotel"`
	Name      string `json:"name" doc:"Display name"`
	Capacity  int    `json:"capacity" doc:"Maximum number of guests"`
	BaseRate  string `json:"base_rate" doc:"Nightly rate"`
	Currency  string `json:"currency" doc:"ISO 4217 currency code"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toRoomTypeResponse(rt domain.RoomType) RoomTypeResponse {
	return RoomTypeResponse{
		ID:        rt.ID,
		HotelID:   rt.HotelID,
		Name:      rt.Name,
		Capacity:  rt.Capacity,
		BaseRate:  money(rt.BaseRate),
		Currency:  rt.Currency,
		CreatedAt: timestamp(rt.CreatedAt),
	}
}

// OccupantResponse is a denormalized guest name shown on a room.
type OccupantResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsMain    bool   `json:"is_main"`
}

// RoomResponse is the API representation of a room.
type RoomResponse struct {
	ID               string             `json:"id" doc:"Unique identifier"`
	HotelID          string             `json:"hotel_id" doc:"Owning hotel"`
	Number           string             `json:"number" doc:"Room number"`
	Floor            int                `json:"floor" doc:"Floor number"`
	RoomTypeID       string             `json:"room_type_id" doc:"Room type"`
	Status           string             `json:"status" doc:"Occupancy status"`
	Housekeeping     string             `json:"housekeeping" doc:"Housekeeping status"`
	Occupants        []OccupantResponse `json:"occupants" doc:"Guests currently in the room"`
	ReservationRef   string             `json:"reservation_ref,omitempty" doc:"Booking that holds the room"`
	CheckInDate      string             `json:"check_in_date,omitempty" doc:"Arrival of the current occupants"`
	ExpectedCheckout string             `json:"expected_checkout,omitempty" doc:"Expected departure of the current occupants"`
	UpdatedAt        string             `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toRoomResponse(r domain.Room) RoomResponse {
	occupants := make([]OccupantResponse, len(r.Occupants))
	for i, o := range r.Occupants {
		occupants[i] = OccupantResponse{FirstName: o.FirstName, LastName: o.LastName, IsMain: o.IsMain}
	}
	return RoomResponse{
		ID:               r.ID,
		HotelID:          r.HotelID,
		Number:           r.Number,
		Floor:            r.Floor,
		RoomTypeID:       r.RoomTypeID,
		Status:           string(r.Status),
		Housekeeping:     string(r.Housekeeping),
		Occupants:        occupants,
		ReservationRef:   r.ReservationRef,
		CheckInDate:      date(r.CheckInDate),
		ExpectedCheckout: date(r.ExpectedCheckout),
		UpdatedAt:        timestamp(r.UpdatedAt),
	}
}

// --- Stays ---

// GuestBody is a guest as sent and returned by the API.
type GuestBody struct {
	ID               string `json:"id,omitempty" doc:"Guest ID, assigned by the server"`
	FirstName        string `json:"first_name" doc:"Given name"`
	LastName         string `json:"last_name" doc:"Family name"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	IDDocumentNumber string `json:"id_document_number,omitempty" doc:"Passport or national ID number"`
	Nationality      string `json:"nationality,omitempty"`
	IsChild          bool   `json:"is_child,omitempty"`
	IsMain           bool   `json:"is_main,omitempty" doc:"Registered guest of the room"`
	ProfileID        string `json:"profile_id,omitempty" doc:"Linked guest profile"`
}

func (g GuestBody) toDomain() domain.Guest {
	return domain.Guest{
		ID:               g.ID,
		FirstName:        g.FirstName,
		LastName:         g.LastName,
		Email:            g.Email,
		Phone:            g.Phone,
		IDDocumentNumber: g.IDDocumentNumber,
		Nationality:      g.Nationality,
		IsChild:          g.IsChild,
		IsMain:           g.IsMain,
		ProfileID:        g.ProfileID,
	}
}

func toGuestBody(g domain.Guest) GuestBody {
	return GuestBody{
		ID:               g.ID,
		FirstName:        g.FirstName,
		LastName:         g.LastName,
		Email:            g.Email,
		Phone:            g.Phone,
		IDDocumentNumber: g.IDDocumentNumber,
		Nationality:      g.Nationality,
		IsChild:          g.IsChild,
		IsMain:           g.IsMain,
		ProfileID:        g.ProfileID,
	}
}

func toDomainGuests(in []GuestBody) []domain.Guest {
	out := make([]domain.Guest, len(in))
	for i, g := range in {
		out[i] = g.toDomain()
	}
	return out
}

// RoomChangeResponse is one entry of a stay's room-move log.
type RoomChangeResponse struct {
	FromRoomNumber string `json:"from_room_number"`
	ToRoomNumber   string `json:"to_room_number"`
	Reason         string `json:"reason,omitempty"`
	ChangedAt      string `json:"changed_at"`
}

// ExtraResponse is a charge posted on top of the room rate.
type ExtraResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

// PaymentResponse is a payment or refund recorded on a stay.
type PaymentResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind" doc:"payment or refund"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ExchangeRate string `json:"exchange_rate,omitempty"`
	AmountInBase string `json:"amount_in_base" doc:"Amount in the stay currency"`
	Method       string `json:"method,omitempty"`
	RefundOf     string `json:"refund_of,omitempty"`
	PaidAt       string `json:"paid_at"`
}

// StayResponse is the API representation of a stay.
type StayResponse struct {
	ID             string               `json:"id" doc:"Unique identifier"`
	HotelID        string               `json:"hotel_id"`
	StayNumber     string               `json:"stay_number" doc:"Human-readable stay number"`
	RoomID         string               `json:"room_id,omitempty"`
	RoomNumber     string               `json:"room_number,omitempty"`
	RoomTypeID     string               `json:"room_type_id"`
	ReservationID  string               `json:"reservation_id,omitempty"`
	RoomIndex      int                  `json:"room_index" doc:"Position in the reservation"`
	CheckInDate    string               `json:"check_in_date"`
	CheckOutDate   string               `json:"check_out_date"`
	ActualCheckIn  string               `json:"actual_check_in,omitempty"`
	ActualCheckOut string               `json:"actual_check_out,omitempty"`
	Nights         int                  `json:"nights"`
	Adults         int                  `json:"adults"`
	Children       int                  `json:"children"`
	Guests         []GuestBody          `json:"guests"`
	Status         string               `json:"status" doc:"Lifecycle state"`
	RoomRate       string               `json:"room_rate" doc:"Nightly rate"`
	TotalAmount    string               `json:"total_amount"`
	PaidAmount     string               `json:"paid_amount"`
	Balance        string               `json:"balance"`
	Currency       string               `json:"currency"`
	PaymentStatus  string               `json:"payment_status"`
	RoomHistory    []RoomChangeResponse `json:"room_history"`
	Extras         []ExtraResponse      `json:"extras"`
	Payments       []PaymentResponse    `json:"payments"`
	CheckoutReason string               `json:"checkout_reason,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	Version        int                  `json:"version" doc:"Optimistic concurrency version"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
}

func toStayResponse(s domain.Stay) StayResponse {
	guests := make([]GuestBody, len(s.Guests))
	for i, g := range s.Guests {
		guests[i] = toGuestBody(g)
	}
	history := make([]RoomChangeResponse, len(s.RoomHistory))
	for i, h := range s.RoomHistory {
		history[i] = RoomChangeResponse{
			FromRoomNumber: h.FromRoomNumber,
			ToRoomNumber:   h.ToRoomNumber,
			Reason:         h.Reason,
			ChangedAt:      timestamp(h.ChangedAt),
		}
	}
	extras := make([]ExtraResponse, len(s.Extras))
	for i, e := range s.Extras {
		extras[i] = ExtraResponse{
			ID:          e.ID,
			Description: e.Description,
			UnitPrice:   money(e.UnitPrice),
			Quantity:    e.Quantity,
			Amount:      money(e.Amount()),
			Date:        date(e.Date),
		}
	}
	payments := make([]PaymentResponse, len(s.Payments))
	for i, p := range s.Payments {
		pr := PaymentResponse{
			ID:           p.ID,
			Kind:         string(p.Kind),
			Amount:       money(p.Amount),
			Currency:     p.Currency,
			AmountInBase: money(p.BaseAmount()),
			Method:       p.Method,
			RefundOf:     p.RefundOf,
			PaidAt:       timestamp(p.PaidAt),
		}
		if p.ExchangeRate != nil {
			pr.ExchangeRate = p.ExchangeRate.String()
		}
		payments[i] = pr
	}

	return StayResponse{
		ID:             s.ID,
		HotelID:        s.HotelID,
		StayNumber:     s.StayNumber,
		RoomID:         s.RoomID,
		RoomNumber:     s.RoomNumber,
		RoomTypeID:     s.RoomTypeID,
		ReservationID:  s.ReservationID,
		RoomIndex:      s.RoomIndex,
		CheckInDate:    date(s.CheckInDate),
		CheckOutDate:   date(s.CheckOutDate),
		ActualCheckIn:  timestamp(s.ActualCheckIn),
		ActualCheckOut: timestamp(s.ActualCheckOut),
		Nights:         s.Nights,
		Adults:         s.Adults,
		Children:       s.Children,
		Guests:         guests,
		Status:         string(s.Status),
		RoomRate:       money(s.RoomRate),
		TotalAmount:    money(s.TotalAmount),
		PaidAmount:     money(s.PaidAmount),
		Balance:        money(s.Balance),
		Currency:       s.Currency,
		PaymentStatus:  string(s.PaymentStatus),
		RoomHistory:    history,
		Extras:         extras,
		Payments:       payments,
		CheckoutReason: string(s.CheckoutReason),
		Notes:          s.Notes,
		Version:        s.Version,
		CreatedAt:      timestamp(s.CreatedAt),
		UpdatedAt:      timestamp(s.UpdatedAt),
	}
}

func toStayResponses(stays []domain.Stay) []StayResponse {
	out := make([]StayResponse, len(stays))
	for i, s := range stays {
		out[i] = toStayResponse(s)
	}
	return out
}

// LedgerEntryResponse is one financial transaction posted for a stay.
type LedgerEntryResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type" doc:"charge, payment, refund or adjustment"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	RoomID      string `json:"room_id,omitempty"`
	Description string `json:"description,omitempty"`
	Method      string `json:"method,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toLedgerEntryResponse(e domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:          e.ID,
		Type:        string(e.Type),
		Amount:      money(e.Amount),
		Currency:    e.Currency,
		RoomID:      e.RoomID,
		Description: e.Description,
		Method:      e.Method,
		CreatedAt:   timestamp(e.CreatedAt),
	}
}

// --- Reservations ---

// ReservationRoomBody is one sub-booking of a reservation.
type ReservationRoomBody struct {
	RoomTypeID string      `json:"room_type_id" minLength:"1" doc:"Booked room type"`
	RoomID     string      `json:"room_id,omitempty" doc:"Pre-assigned room"`
	LeadGuest  *GuestBody  `json:"lead_guest,omitempty" doc:"Registered guest of this room"`
	Guests     []GuestBody `json:"guests,omitempty"`
	Rate       string      `json:"rate,omitempty" doc:"Nightly rate override"`
}

// ReservationResponse is the API representation of a reservation.
type ReservationResponse struct {
	ID           string                `json:"id" doc:"Unique identifier"`
	HotelID      string                `json:"hotel_id"`
	Number       string                `json:"number" doc:"Booking number"`
	Status       string                `json:"status" doc:"Lifecycle state"`
	CheckInDate  string                `json:"check_in_date"`
	CheckOutDate string                `json:"check_out_date"`
	LeadGuest    *GuestBody            `json:"lead_guest,omitempty"`
	Rooms        []ReservationRoomBody `json:"rooms"`
	CreatedAt    string                `json:"created_at"`
	UpdatedAt    string                `json:"updated_at"`
}

func toReservationResponse(r domain.Reservation) ReservationResponse {
	rooms := make([]ReservationRoomBody, len(r.Rooms))
	for i, rr := range r.Rooms {
		body := ReservationRoomBody{RoomTypeID: rr.RoomTypeID, RoomID: rr.RoomID}
		if rr.LeadGuest != nil {
			g := toGuestBody(*rr.LeadGuest)
			body.LeadGuest = &g
		}
		for _, g := range rr.Guests {
			body.Guests = append(body.Guests, toGuestBody(g))
		}
		if rr.Rate != nil {
			body.Rate = money(*rr.Rate)
		}
		rooms[i] = body
	}
	resp := ReservationResponse{
		ID:           r.ID,
		HotelID:      r.HotelID,
		Number:       r.Number,
		Status:       string(r.Status),
		CheckInDate:  date(r.CheckInDate),
		CheckOutDate: date(r.CheckOutDate),
		Rooms:        rooms,
		CreatedAt:    timestamp(r.CreatedAt),
		UpdatedAt:    timestamp(r.UpdatedAt),
	}
	if r.LeadGuest != nil {
		g := toGuestBody(*r.LeadGuest)
		resp.LeadGuest = &g
	}
	return resp
}

// --- Timeline ---

// StaySlotResponse is a stay as drawn on the occupancy timeline.
type StaySlotResponse struct {
	ID           string `json:"id"`
	StayNumber   string `json:"stay_number"`
	Status       string `json:"status"`
	GuestName    string `json:"guest_name"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Balance      string `json:"balance"`
}

// TimelineRoomResponse is a room row of the timeline.
type TimelineRoomResponse struct {
	Room  RoomResponse       `json:"room"`
	Stays []StaySlotResponse `json:"stays"`
}

// TimelineFloorResponse groups timeline rows by floor.
type TimelineFloorResponse struct {
	Number int                    `json:"number"`
	Rooms  []TimelineRoomResponse `json:"rooms"`
}

// UnassignedResponse counts demand not yet placed in a room.
type UnassignedResponse struct {
	Reservations int `json:"reservations" doc:"Arriving reservations with at least one unassigned room"`
	Rooms        int `json:"rooms" doc:"Unassigned sub-bookings of those reservations"`
	PendingStays int `json:"pending_stays" doc:"Pending stays without a room"`
}

// TimelineResponse is the occupancy grid for a hotel and date range.
type TimelineResponse struct {
	HotelID    string                  `json:"hotel_id"`
	From       string                  `json:"from"`
	To         string                  `json:"to"`
	Floors     []TimelineFloorResponse `json:"floors"`
	Unassigned UnassignedResponse      `json:"unassigned"`
}

func mainGuestName(s domain.Stay) string {
	for _, g := range s.Guests {
		if g.IsMain {
			return strings.TrimSpace(g.FirstName + " " + g.LastName)
		}
	}
	if len(s.Guests) > 0 {
		return strings.TrimSpace(s.Guests[0].FirstName + " " + s.Guests[0].LastName)
	}
	return ""
}

func toTimelineResponse(tl app.Timeline) TimelineResponse {
	floors := make([]TimelineFloorResponse, len(tl.Floors))
	for i, f := range tl.Floors {
		rooms := make([]TimelineRoomResponse, len(f.Rooms))
		for j, ro := range f.Rooms {
			slots := make([]StaySlotResponse, len(ro.Stays))
			for k, s := range ro.Stays {
				slots[k] = StaySlotResponse{
					ID:           s.ID,
					StayNumber:   s.StayNumber,
					Status:       string(s.Status),
					GuestName:    mainGuestName(s),
					CheckInDate:  date(s.CheckInDate),
					CheckOutDate: date(s.CheckOutDate),
					Balance:      money(s.Balance),
				}
			}
			rooms[j] = TimelineRoomResponse{Room: toRoomResponse(ro.Room), Stays: slots}
		}
		floors[i] = TimelineFloorResponse{Number: f.Number, Rooms: rooms}
	}
	return TimelineResponse{
		HotelID: tl.HotelID,
		From:    date(tl.From),
		To:      date(tl.To),
		Floors:  floors,
		Unassigned: UnassignedResponse{
			Reservations: tl.Unassigned.Reservations,
			Rooms:        tl.Unassigned.Rooms,
			PendingStays: tl.Unassigned.PendingStays,
		},
	}
}
