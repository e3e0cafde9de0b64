package http

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/frontdesk/internal/app"
	"github.com/neomorfeo/frontdesk/internal/domain"
)

// Services bundles the application services exposed over HTTP.
type Services struct {
	Rooms        *app.RoomService
	Stays        *app.StayService
	Reservations *app.ReservationService
	Timeline     *app.TimelineService
}

// Register adds all front desk API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerRooms(api, svc.Rooms)
	registerReservations(api, svc.Reservations, svc.Stays)
	registerStays(api, svc.Stays)
	registerTimeline(api, svc.Timeline)
}

// toHumaError translates domain errors to Huma HTTP errors.
// Conflicts are retryable: the client should reload and try again.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return huma.Error404NotFound(err.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	if errors.Is(err, domain.ErrValidation) {
		return huma.Error422UnprocessableEntity(err.Error())
	}

	if errors.Is(err, domain.ErrConflict) {
		return huma.Error409Conflict(err.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
