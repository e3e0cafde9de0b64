package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/frontdesk/internal/app"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

// --- Create Room Type ---

type CreateRoomTypeInput struct {
	Body struct {
		HotelID  string `json:"hotel_id" minLength:"1" doc:"Owning hotel"`
		Name     string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Capacity int    `json:"capacity" minimum:"1" doc:"Maximum number of guests"`
		BaseRate string `json:"base_rate" doc:"Nightly rate as a decimal string"`
		Currency string `json:"currency" minLength:"3" maxLength:"3" doc:"ISO 4217 currency code"`
	}
}

type RoomTypeOutput struct {
	Body RoomTypeResponse
}

// --- Rooms ---

type CreateRoomInput struct {
	Body struct {
		HotelID    string `json:"hotel_id" minLength:"1" doc:"Owning hotel"`
		Number     string `json:"number" minLength:"1" maxLength:"20" doc:"Room number"`
		Floor      int    `json:"floor" doc:"Floor number"`
		RoomTypeID string `json:"room_type_id" minLength:"1" doc:"Room type"`
	}
}

type RoomOutput struct {
	Body RoomResponse
}

type GetRoomInput struct {
	ID string `path:"id" doc:"Room ID"`
}

type ListRoomsInput struct {
	HotelID string `path:"hotel_id" doc:"Hotel ID"`
}

type ListRoomsOutput struct {
	Body []RoomResponse
}

type RoomEventInput struct {
	ID   string `path:"id" doc:"Room ID"`
	Body struct {
		Event string `json:"event" doc:"Housekeeping or engineering event" enum:"mark_dirty,mark_cleaned,mark_inspected,start_maintenance,end_maintenance,take_out_of_order,return_to_service"`
	}
}

func registerRooms(api huma.API, svc *app.RoomService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-room-type",
		Method:      http.MethodPost,
		Path:        "/api/v1/room-types",
		Summary:     "Create a room type",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *CreateRoomTypeInput) (*RoomTypeOutput, error) {
		rate, err := parseMoney("base_rate", input.Body.BaseRate)
		if err != nil {
			return nil, toHumaError(err)
		}
		rt, err := svc.CreateRoomType(ctx, app.CreateRoomTypeRequest{
			HotelID:  input.Body.HotelID,
			Name:     input.Body.Name,
			Capacity: input.Body.Capacity,
			BaseRate: rate,
			Currency: input.Body.Currency,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomTypeOutput{Body: toRoomTypeResponse(rt)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-room",
		Method:      http.MethodPost,
		Path:        "/api/v1/rooms",
		Summary:     "Add a room to the inventory",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *CreateRoomInput) (*RoomOutput, error) {
		room, err := svc.CreateRoom(ctx, input.Body.HotelID, input.Body.Number, input.Body.Floor, input.Body.RoomTypeID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-room",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms/{id}",
		Summary:     "Get a room by ID",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *GetRoomInput) (*RoomOutput, error) {
		room, err := svc.GetRoom(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-rooms",
		Method:      http.MethodGet,
		Path:        "/api/v1/hotels/{hotel_id}/rooms",
		Summary:     "List a hotel's active rooms",
		Tags:        []string{"Rooms"},
	}, func(ctx context.Context, input *ListRoomsInput) (*ListRoomsOutput, error) {
		rooms, err := svc.ListRooms(ctx, input.HotelID)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]RoomResponse, len(rooms))
		for i, r := range rooms {
			resp[i] = toRoomResponse(r)
		}
		return &ListRoomsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "room-event",
		Method:      http.MethodPost,
		Path:        "/api/v1/rooms/{id}/events",
		Summary:     "Apply a housekeeping event",
		Tags:        []string{"Housekeeping"},
	}, func(ctx context.Context, input *RoomEventInput) (*RoomOutput, error) {
		room, err := svc.ApplyHousekeeping(ctx, input.ID, domain.RoomEvent(input.Body.Event))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-cleaning",
		Method:      http.MethodPost,
		Path:        "/api/v1/rooms/{id}/cleaning",
		Summary:     "Mark a vacated room as being cleaned",
		Tags:        []string{"Housekeeping"},
	}, func(ctx context.Context, input *GetRoomInput) (*RoomOutput, error) {
		room, err := svc.StartCleaning(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})
}
