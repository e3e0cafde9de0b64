package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/frontdesk/internal/app"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

// --- Create Reservation ---

type CreateReservationInput struct {
	Body struct {
		HotelID      string                `json:"hotel_id" minLength:"1" doc:"Owning hotel"`
		Number       string                `json:"number" minLength:"1" maxLength:"64" doc:"Booking number"`
		CheckInDate  string                `json:"check_in_date" doc:"Arrival date (YYYY-MM-DD)"`
		CheckOutDate string                `json:"check_out_date" doc:"Departure date (YYYY-MM-DD)"`
		LeadGuest    *GuestBody            `json:"lead_guest,omitempty" doc:"Guest the booking is made for"`
		Rooms        []ReservationRoomBody `json:"rooms" minItems:"1" doc:"Booked rooms"`
	}
}

type ReservationOutput struct {
	Body ReservationResponse
}

type GetReservationInput struct {
	ID string `path:"id" doc:"Reservation ID"`
}

type StaysOutput struct {
	Body []StayResponse
}

// --- Check In Reservation Room ---

type CheckInReservationInput struct {
	ID    string `path:"id" doc:"Reservation ID"`
	Index int    `path:"index" minimum:"0" doc:"Room index within the reservation"`
	Body  struct {
		RoomID string `json:"room_id,omitempty" doc:"Room to check the guests into; defaults to the pre-assigned room"`
	}
}

func registerReservations(api huma.API, svc *app.ReservationService, stays *app.StayService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-reservation",
		Method:      http.MethodPost,
		Path:        "/api/v1/reservations",
		Summary:     "Create a reservation",
		Tags:        []string{"Reservations"},
	}, func(ctx context.Context, input *CreateReservationInput) (*ReservationOutput, error) {
		req, err := createReservationRequest(input)
		if err != nil {
			return nil, toHumaError(err)
		}
		res, err := svc.Create(ctx, req)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ReservationOutput{Body: toReservationResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-reservation",
		Method:      http.MethodGet,
		Path:        "/api/v1/reservations/{id}",
		Summary:     "Get a reservation by ID",
		Tags:        []string{"Reservations"},
	}, func(ctx context.Context, input *GetReservationInput) (*ReservationOutput, error) {
		res, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ReservationOutput{Body: toReservationResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "prepare-reservation",
		Method:      http.MethodPost,
		Path:        "/api/v1/reservations/{id}/prepare",
		Summary:     "Create pending stays for every room of a reservation",
		Tags:        []string{"Reservations"},
	}, func(ctx context.Context, input *GetReservationInput) (*StaysOutput, error) {
		prepared, err := svc.Prepare(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StaysOutput{Body: toStayResponses(prepared)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-in-reservation-room",
		Method:      http.MethodPost,
		Path:        "/api/v1/reservations/{id}/rooms/{index}/check-in",
		Summary:     "Check in one room of a reservation",
		Tags:        []string{"Reservations", "Stays"},
	}, func(ctx context.Context, input *CheckInReservationInput) (*StayOutput, error) {
		stay, err := stays.CheckInReservation(ctx, input.ID, input.Body.RoomID, input.Index)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})
}

func createReservationRequest(input *CreateReservationInput) (app.CreateReservationRequest, error) {
	checkIn, err := domain.ParseDate("check_in_date", input.Body.CheckInDate)
	if err != nil {
		return app.CreateReservationRequest{}, err
	}
	checkOut, err := domain.ParseDate("check_out_date", input.Body.CheckOutDate)
	if err != nil {
		return app.CreateReservationRequest{}, err
	}

	req := app.CreateReservationRequest{
		HotelID:  input.Body.HotelID,
		Number:   input.Body.Number,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}
	if input.Body.LeadGuest != nil {
		g := input.Body.LeadGuest.toDomain()
		req.LeadGuest = &g
	}
	for i, r := range input.Body.Rooms {
		room := domain.ReservationRoom{
			Index:      i,
			RoomTypeID: r.RoomTypeID,
			RoomID:     r.RoomID,
			Guests:     toDomainGuests(r.Guests),
		}
		if r.LeadGuest != nil {
			g := r.LeadGuest.toDomain()
			room.LeadGuest = &g
		}
		room.Rate, err = parseOptionalMoney("rate", r.Rate)
		if err != nil {
			return app.CreateReservationRequest{}, err
		}
		req.Rooms = append(req.Rooms, room)
	}
	return req, nil
}
