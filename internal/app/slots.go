package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"scheduling-service/internal/apperr"
	"scheduling-service/internal/scheduling"
)

// AvailableSlots lists the open slots of the event type identified by slug
// on the given host-local date.
func (a *App) AvailableSlots(ctx context.Context, slug, date string) (SlotsResponse, error) {
	if date == "" {
		return SlotsResponse{}, apperr.Validation("Date parameter is required (YYYY-MM-DD)")
	}
	day, err := scheduling.ParseDate(date)
	if err != nil {
		return SlotsResponse{}, apperr.Validation("Invalid date format. Use YYYY-MM-DD")
	}

	et, err := a.Store.GetEventTypeBySlug(ctx, slug)
	if err != nil {
		return SlotsResponse{}, storeError(err, "Event type")
	}
	resp := SlotsResponse{
		Slots:     []SlotView{},
		Timezone:  "UTC",
		EventType: &EventTypeSummary{Name: et.Name, Duration: et.DurationMinutes, Description: et.Description},
	}

	av, saved, err := a.Availability(ctx)
	if err != nil {
		return SlotsResponse{}, err
	}
	if !saved {
		return resp, nil
	}
	loc, err := av.Location()
	if err != nil {
		return SlotsResponse{}, apperr.Internal("Failed to load host timezone", err)
	}
	resp.Timezone = av.Timezone

	span := day.Span(loc)
	booked, err := a.Store.ConfirmedIntervals(ctx, et.ID, span.Start, span.End)
	if err != nil {
		return SlotsResponse{}, storeError(err, "Booking")
	}

	for _, s := range scheduling.GenerateSlots(day, loc, av.WeeklySchedule, et.Duration(), a.Config.SlotStep, booked, a.Now()) {
		resp.Slots = append(resp.Slots, SlotView{
			StartTime:   s.Start.UTC(),
			EndTime:     s.End.UTC(),
			DisplayTime: s.Start.In(loc).Format("15:04"),
		})
	}
	return resp, nil
}

// GET /api/bookings/available-slots/:slug?date=YYYY-MM-DD
func (a *App) AvailableSlotsHandler(c *gin.Context) {
	resp, err := a.AvailableSlots(c.Request.Context(), c.Param("slug"), c.Query("date"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
