package app

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"scheduling-service/internal/apperr"
	"scheduling-service/internal/model"
	"scheduling-service/internal/store"
)

// writeError renders err as {"error", "code", "details"}. Causes of
// internal errors are logged, never returned to the caller.
func (a *App) writeError(c *gin.Context, err error) {
	appErr := apperr.As(err)
	if appErr.Kind == apperr.KindInternal {
		a.logger(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	body := gin.H{"error": appErr.Message, "code": appErr.Kind}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.AbortWithStatusJSON(appErr.StatusCode(), body)
}

func badJSON(err error) error {
	return apperr.Validation("Invalid request body").WithDetails(map[string]any{"reason": err.Error()})
}

// storeError maps store sentinels onto error kinds. resource names the
// entity for not-found messages.
func storeError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(resource)
	case errors.Is(err, store.ErrConflict):
		return apperr.Conflict("This time slot is no longer available. Please select another time.")
	case errors.Is(err, store.ErrSlugTaken):
		return apperr.Conflict("An event type with this slug already exists")
	case errors.Is(err, store.ErrInUse):
		return apperr.Conflict("Event type has bookings and cannot be deleted")
	case errors.Is(err, model.ErrAlreadyCancelled):
		return apperr.State("Booking is already cancelled", err)
	default:
		return apperr.Internal("Internal server error", err)
	}
}

// logger prefers the request-scoped logger installed by the server.
func (a *App) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Log
}
