package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/frontdesk/internal/app"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

// PaymentBody describes money received for a stay.
type PaymentBody struct {
	Amount       string `json:"amount" doc:"Amount as a decimal string"`
	Currency     string `json:"currency,omitempty" doc:"Defaults to the stay currency"`
	ExchangeRate string `json:"exchange_rate,omitempty" doc:"Stay-currency units per payment-currency unit"`
	Method       string `json:"method,omitempty" doc:"cash, card, transfer..."`
}

func (p PaymentBody) toRequest() (app.PaymentRequest, error) {
	amount, err := parseMoney("amount", p.Amount)
	if err != nil {
		return app.PaymentRequest{}, err
	}
	rate, err := parseOptionalMoney("exchange_rate", p.ExchangeRate)
	if err != nil {
		return app.PaymentRequest{}, err
	}
	return app.PaymentRequest{Amount: amount, Currency: p.Currency, ExchangeRate: rate, Method: p.Method}, nil
}

// --- Walk-in ---

type WalkInInput struct {
	Body struct {
		HotelID        string       `json:"hotel_id" minLength:"1" doc:"Owning hotel"`
		RoomID         string       `json:"room_id" minLength:"1" doc:"Room to claim"`
		CheckInDate    string       `json:"check_in_date" doc:"Arrival date (YYYY-MM-DD)"`
		CheckOutDate   string       `json:"check_out_date" doc:"Departure date (YYYY-MM-DD)"`
		Guests         []GuestBody  `json:"guests" minItems:"1" doc:"Party; the first main guest is registered to the room"`
		Rate           string       `json:"rate,omitempty" doc:"Nightly rate override"`
		InitialPayment *PaymentBody `json:"initial_payment,omitempty" doc:"Payment collected at the desk"`
		Notes          string       `json:"notes,omitempty"`
	}
}

type StayOutput struct {
	Body StayResponse
}

type StayIDInput struct {
	ID string `path:"id" doc:"Stay ID"`
}

// --- Stay operations ---

type ChangeRoomInput struct {
	ID   string `path:"id" doc:"Stay ID"`
	Body struct {
		RoomID string `json:"room_id" minLength:"1" doc:"Room to move to"`
		Reason string `json:"reason,omitempty" doc:"Why the guests moved"`
	}
}

type ExtendInput struct {
	ID   string `path:"id" doc:"Stay ID"`
	Body struct {
		CheckOutDate string `json:"check_out_date" doc:"New departure date (YYYY-MM-DD)"`
		Rate         string `json:"rate,omitempty" doc:"Nightly rate for the added nights"`
	}
}

type CheckOutInput struct {
	ID   string `path:"id" doc:"Stay ID"`
	Body struct {
		Settle bool   `json:"settle,omitempty" doc:"Post a payment or refund for the remaining balance"`
		Method string `json:"method,omitempty" doc:"Method of the settling payment"`
		Reason string `json:"reason,omitempty" doc:"Why a balance is left open" enum:"city_ledger,company_billing,dispute,write_off,other"`
	}
}

type NotesInput struct {
	ID   string `path:"id" doc:"Stay ID"`
	Body struct {
		Notes string `json:"notes" maxLength:"4000"`
	}
}

// --- Billing ---

type AddExtraInput struct {
	ID   string `path:"id" doc:"Stay ID"`
	Body struct {
		Description string `json:"description" minLength:"1" maxLength:"255"`
		UnitPrice   string `json:"unit_price" doc:"Price per unit as a decimal string"`
		Quantity    int    `json:"quantity" minimum:"1"`
		Date        string `json:"date,omitempty" doc:"Service date (YYYY-MM-DD), defaults to today"`
	}
}

type AddPaymentInput struct {
	ID   string `path:"id" doc:"Stay ID"`
	Body PaymentBody
}

type RefundInput struct {
	ID        string `path:"id" doc:"Stay ID"`
	PaymentID string `path:"payment_id" doc:"Payment to refund"`
}

type LedgerOutput struct {
	Body []LedgerEntryResponse
}

// --- Guests ---

type AddGuestInput struct {
	ID   string `path:"id" doc:"Stay ID"`
	Body GuestBody
}

type UpdateGuestInput struct {
	ID      string `path:"id" doc:"Stay ID"`
	GuestID string `path:"guest_id" doc:"Guest ID"`
	Body    GuestBody
}

type RemoveGuestInput struct {
	ID      string `path:"id" doc:"Stay ID"`
	GuestID string `path:"guest_id" doc:"Guest ID"`
}

func registerStays(api huma.API, svc *app.StayService) {
	huma.Register(api, huma.Operation{
		OperationID: "walk-in",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays",
		Summary:     "Check in a walk-in party",
		Description: "Claims the room atomically. A 409 means the room was taken first; refresh and pick another.",
		Tags:        []string{"Stays"},
	}, func(ctx context.Context, input *WalkInInput) (*StayOutput, error) {
		req, err := walkInRequest(input)
		if err != nil {
			return nil, toHumaError(err)
		}
		stay, err := svc.WalkIn(ctx, req)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-stay",
		Method:      http.MethodGet,
		Path:        "/api/v1/stays/{id}",
		Summary:     "Get a stay by ID",
		Tags:        []string{"Stays"},
	}, func(ctx context.Context, input *StayIDInput) (*StayOutput, error) {
		stay, err := svc.GetStay(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-room",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays/{id}/room-change",
		Summary:     "Move a checked-in stay to another room",
		Tags:        []string{"Stays"},
	}, func(ctx context.Context, input *ChangeRoomInput) (*StayOutput, error) {
		stay, err := svc.ChangeRoom(ctx, input.ID, input.Body.RoomID, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "extend-stay",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays/{id}/extend",
		Summary:     "Extend a stay's departure date",
		Tags:        []string{"Stays"},
	}, func(ctx context.Context, input *ExtendInput) (*StayOutput, error) {
		checkOut, err := domain.ParseDate("check_out_date", input.Body.CheckOutDate)
		if err != nil {
			return nil, toHumaError(err)
		}
		rate, err := parseOptionalMoney("rate", input.Body.Rate)
		if err != nil {
			return nil, toHumaError(err)
		}
		stay, err := svc.Extend(ctx, input.ID, checkOut, rate)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-out",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays/{id}/check-out",
		Summary:     "Check out a stay",
		Description: "A remaining balance must be settled or left open with a reason code.",
		Tags:        []string{"Stays"},
	}, func(ctx context.Context, input *CheckOutInput) (*StayOutput, error) {
		stay, err := svc.CheckOut(ctx, input.ID, app.CheckOutRequest{
			Settle: input.Body.Settle,
			Method: input.Body.Method,
			Reason: domain.BalanceReason(input.Body.Reason),
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-no-show",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays/{id}/no-show",
		Summary:     "Mark a pending stay as a no-show",
		Tags:        []string{"Stays"},
	}, func(ctx context.Context, input *StayIDInput) (*StayOutput, error) {
		stay, err := svc.MarkNoShow(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-stay",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays/{id}/cancel",
		Summary:     "Cancel a pending stay",
		Tags:        []string{"Stays"},
	}, func(ctx context.Context, input *StayIDInput) (*StayOutput, error) {
		stay, err := svc.Cancel(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-notes",
		Method:      http.MethodPut,
		Path:        "/api/v1/stays/{id}/notes",
		Summary:     "Replace a stay's notes",
		Tags:        []string{"Stays"},
	}, func(ctx context.Context, input *NotesInput) (*StayOutput, error) {
		stay, err := svc.UpdateNotes(ctx, input.ID, input.Body.Notes)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	registerBilling(api, svc)
	registerGuests(api, svc)
}

func registerBilling(api huma.API, svc *app.StayService) {
	huma.Register(api, huma.Operation{
		OperationID: "add-extra",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays/{id}/extras",
		Summary:     "Post an extra charge",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *AddExtraInput) (*StayOutput, error) {
		price, err := parseMoney("unit_price", input.Body.UnitPrice)
		if err != nil {
			return nil, toHumaError(err)
		}
		var day time.Time
		if input.Body.Date != "" {
			if day, err = domain.ParseDate("date", input.Body.Date); err != nil {
				return nil, toHumaError(err)
			}
		}
		stay, err := svc.AddExtra(ctx, input.ID, app.ExtraRequest{
			Description: input.Body.Description,
			UnitPrice:   price,
			Quantity:    input.Body.Quantity,
			Date:        day,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-payment",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays/{id}/payments",
		Summary:     "Record a payment",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *AddPaymentInput) (*StayOutput, error) {
		req, err := input.Body.toRequest()
		if err != nil {
			return nil, toHumaError(err)
		}
		stay, err := svc.AddPayment(ctx, input.ID, req)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refund-payment",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays/{id}/payments/{payment_id}/refund",
		Summary:     "Refund a payment in full",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *RefundInput) (*StayOutput, error) {
		stay, err := svc.RefundPayment(ctx, input.ID, input.PaymentID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "stay-ledger",
		Method:      http.MethodGet,
		Path:        "/api/v1/stays/{id}/ledger",
		Summary:     "List the ledger transactions of a stay",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *StayIDInput) (*LedgerOutput, error) {
		entries, err := svc.Ledger(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]LedgerEntryResponse, len(entries))
		for i, e := range entries {
			resp[i] = toLedgerEntryResponse(e)
		}
		return &LedgerOutput{Body: resp}, nil
	})
}

func registerGuests(api huma.API, svc *app.StayService) {
	huma.Register(api, huma.Operation{
		OperationID: "add-guest",
		Method:      http.MethodPost,
		Path:        "/api/v1/stays/{id}/guests",
		Summary:     "Add a guest to the party",
		Tags:        []string{"Guests"},
	}, func(ctx context.Context, input *AddGuestInput) (*StayOutput, error) {
		stay, err := svc.AddGuest(ctx, input.ID, input.Body.toDomain())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-guest",
		Method:      http.MethodPut,
		Path:        "/api/v1/stays/{id}/guests/{guest_id}",
		Summary:     "Update a guest's details",
		Tags:        []string{"Guests"},
	}, func(ctx context.Context, input *UpdateGuestInput) (*StayOutput, error) {
		stay, err := svc.UpdateGuest(ctx, input.ID, input.GuestID, input.Body.toDomain())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-guest",
		Method:      http.MethodDelete,
		Path:        "/api/v1/stays/{id}/guests/{guest_id}",
		Summary:     "Remove a guest from the party",
		Tags:        []string{"Guests"},
	}, func(ctx context.Context, input *RemoveGuestInput) (*StayOutput, error) {
		stay, err := svc.RemoveGuest(ctx, input.ID, input.GuestID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StayOutput{Body: toStayResponse(stay)}, nil
	})
}

func walkInRequest(input *WalkInInput) (app.WalkInRequest, error) {
	checkIn, err := domain.ParseDate("check_in_date", input.Body.CheckInDate)
	if err != nil {
		return app.WalkInRequest{}, err
	}
	checkOut, err := domain.ParseDate("check_out_date", input.Body.CheckOutDate)
	if err != nil {
		return app.WalkInRequest{}, err
	}
	rate, err := parseOptionalMoney("rate", input.Body.Rate)
	if err != nil {
		return app.WalkInRequest{}, err
	}

	req := app.WalkInRequest{
		HotelID:  input.Body.HotelID,
		RoomID:   input.Body.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   toDomainGuests(input.Body.Guests),
		Rate:     rate,
		Notes:    input.Body.Notes,
	}
	if input.Body.InitialPayment != nil {
		p, err := input.Body.InitialPayment.toRequest()
		if err != nil {
			return app.WalkInRequest{}, err
		}
		req.InitialPayment = &p
	}
	return req, nil
}
