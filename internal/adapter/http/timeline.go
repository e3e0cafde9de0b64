package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/frontdesk/internal/app"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

type TimelineInput struct {
	HotelID string `path:"hotel_id" doc:"Hotel ID"`
	From    string `query:"from" doc:"First night shown (YYYY-MM-DD)"`
	To      string `query:"to" doc:"Day after the last night shown (YYYY-MM-DD)"`
}

type TimelineOutput struct {
	Body TimelineResponse
}

func registerTimeline(api huma.API, svc *app.TimelineService) {
	huma.Register(api, huma.Operation{
		OperationID: "occupancy-timeline",
		Method:      http.MethodGet,
		Path:        "/api/v1/hotels/{hotel_id}/timeline",
		Summary:     "Occupancy grid by floor and room",
		Tags:        []string{"Timeline"},
	}, func(ctx context.Context, input *TimelineInput) (*TimelineOutput, error) {
		from, err := domain.ParseDate("from", input.From)
		if err != nil {
			return nil, toHumaError(err)
		}
		to, err := domain.ParseDate("to", input.To)
		if err != nil {
			return nil, toHumaError(err)
		}
		tl, err := svc.Timeline(ctx, input.HotelID, from, to)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TimelineOutput{Body: toTimelineResponse(tl)}, nil
	})
}
