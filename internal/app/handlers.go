package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scheduling-service/internal/apperr"
	"scheduling-service/internal/events"
	"scheduling-service/internal/model"
	"scheduling-service/internal/scheduling"
	"scheduling-service/internal/validation"
)

// CreateBooking books in.StartTime for the invitee. The start must be one of
// the host's slots for that day; overlap with a confirmed booking is
// re-checked atomically by the store and reported as a conflict.
func (a *App) CreateBooking(ctx context.Context, in validation.BookingInput) (model.Booking, error) {
	in.Trim()
	if err := a.Validator.Validate(in); err != nil {
		return model.Booking{}, err
	}
	start, err := in.Start()
	if err != nil {
		return model.Booking{}, apperr.Validation("startTime must be an ISO-8601 timestamp")
	}
	start = start.UTC()

	et, err := a.Store.GetEventType(ctx, in.EventTypeID)
	if err != nil {
		return model.Booking{}, storeError(err, "Event type")
	}

	if err := a.checkSlot(ctx, et, start); err != nil {
		return model.Booking{}, err
	}

	b := model.Booking{
		EventTypeID:  et.ID,
		InviteeName:  in.InviteeName,
		InviteeEmail: in.InviteeEmail,
		StartTime:    start,
		EndTime:      start.Add(et.Duration()),
		Notes:        in.Notes,
	}
	if err := a.Store.CreateBooking(ctx, &b); err != nil {
		return model.Booking{}, storeError(err, "Event type")
	}

	a.logger(ctx).Info().
		Str("booking_id", b.ID).
		Str("event_type_id", b.EventTypeID).
		Time("start_time", b.StartTime).
		Msg("booking created")
	a.publish(ctx, events.TypeBookingCreated, b)
	return b, nil
}

// checkSlot verifies start lies on the host's slot grid for its local day,
// inside a window and in the future. Bookings are ignored here.
func (a *App) checkSlot(ctx context.Context, et model.EventType, start time.Time) error {
	av, _, err := a.Availability(ctx)
	if err != nil {
		return err
	}
	loc, err := av.Location()
	if err != nil {
		return apperr.Internal("Failed to load host timezone", err)
	}
	day := scheduling.DateOf(start.In(loc))
	slots := scheduling.GenerateSlots(day, loc, av.WeeklySchedule, et.Duration(), a.Config.SlotStep, nil, a.Now())
	if !scheduling.ContainsStart(slots, start) {
		return apperr.Validation("The selected time is not an available slot").
			WithDetails(map[string]any{"startTime": start, "timezone": av.Timezone})
	}
	return nil
}

func (a *App) CancelBooking(ctx context.Context, id string) (model.Booking, error) {
	b, err := a.Store.CancelBooking(ctx, id, a.Now())
	if err != nil {
		return model.Booking{}, storeError(err, "Booking")
	}
	a.logger(ctx).Info().Str("booking_id", b.ID).Msg("booking cancelled")
	a.publish(ctx, events.TypeBookingCancelled, b)
	return b, nil
}

func (a *App) ListBookings(ctx context.Context, filter string) ([]model.Booking, error) {
	f, err := model.ParseBookingFilter(filter)
	if err != nil {
		return nil, apperr.Validation("Invalid filter. Use upcoming, past or all")
	}
	list, err := a.Store.ListBookings(ctx, f, a.Now())
	if err != nil {
		return nil, storeError(err, "Booking")
	}
	return list, nil
}

// publish runs after the booking is committed, so failures are logged and
// the request still succeeds.
func (a *App) publish(ctx context.Context, typ string, b model.Booking) {
	ev := events.BookingEvent(typ, b, a.Now())
	if err := a.Events.Publish(ctx, ev); err != nil {
		a.logger(ctx).Warn().Err(err).
			Str("event_type", typ).
			Str("booking_id", b.ID).
			Msg("publish booking event failed")
	}
}

// POST /api/bookings
func (a *App) CreateBookingHandler(c *gin.Context) {
	var in validation.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		a.writeError(c, badJSON(err))
		return
	}
	b, err := a.CreateBooking(c.Request.Context(), in)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GET /api/bookings/:id
func (a *App) GetBookingHandler(c *gin.Context) {
	b, err := a.Store.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, storeError(err, "Booking"))
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/bookings?filter=upcoming|past|all
func (a *App) ListBookingsHandler(c *gin.Context) {
	list, err := a.ListBookings(c.Request.Context(), c.Query("filter"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PATCH /api/bookings/:id/cancel
func (a *App) CancelBookingHandler(c *gin.Context) {
	b, err := a.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
