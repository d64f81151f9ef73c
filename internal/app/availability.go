package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scheduling-service/internal/model"
	"scheduling-service/internal/store"
	"scheduling-service/internal/validation"
)

// Availability returns the host's saved availability, or UTC with an empty
// week when nothing has been saved.
func (a *App) Availability(ctx context.Context) (model.Availability, bool, error) {
	av, err := a.Store.GetAvailability(ctx, a.Config.HostID)
	if errors.Is(err, store.ErrNotFound) {
		return model.DefaultAvailability(a.Config.HostID), false, nil
	}
	if err != nil {
		return model.Availability{}, false, storeError(err, "Availability")
	}
	return av, true, nil
}

func (a *App) SaveAvailability(ctx context.Context, in validation.AvailabilityInput) (model.Availability, error) {
	if err := a.Validator.Validate(in); err != nil {
		return model.Availability{}, err
	}
	av := model.Availability{
		HostID:         a.Config.HostID,
		Timezone:       in.Timezone,
		WeeklySchedule: in.WeeklySchedule.Normalize(),
	}
	if err := a.Store.SaveAvailability(ctx, &av); err != nil {
		return model.Availability{}, storeError(err, "Availability")
	}
	a.logger(ctx).Info().Str("timezone", av.Timezone).Msg("availability saved")
	return av, nil
}

// GET /api/availability
func (a *App) GetAvailabilityHandler(c *gin.Context) {
	av, _, err := a.Availability(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}

// POST /api/availability
func (a *App) SaveAvailabilityHandler(c *gin.Context) {
	var in validation.AvailabilityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		a.writeError(c, badJSON(err))
		return
	}
	av, err := a.SaveAvailability(c.Request.Context(), in)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}

// GET /api/availability/timezones
func (a *App) TimezonesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, validation.Timezones)
}
