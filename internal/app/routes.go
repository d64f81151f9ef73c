package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Routes registers every endpoint on r. bookingGuard, when non-nil, runs
// in front of booking creation only.
func (a *App) Routes(r gin.IRouter, bookingGuard gin.HandlerFunc) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Scheduling service"})
	})
	r.GET("/health", a.HealthHandler)

	api := r.Group("/api")
	{
		et := api.Group("/event-types")
		{
			et.POST("", a.CreateEventTypeHandler)
			et.GET("", a.ListEventTypesHandler)
			et.GET("/slug/:slug", a.GetEventTypeBySlugHandler)
			et.GET("/:id", a.GetEventTypeHandler)
			et.PUT("/:id", a.UpdateEventTypeHandler)
			et.DELETE("/:id", a.DeleteEventTypeHandler)
		}

		av := api.Group("/availability")
		{
			av.GET("", a.GetAvailabilityHandler)
			av.POST("", a.SaveAvailabilityHandler)
			av.GET("/timezones", a.TimezonesHandler)
		}

		bookings := api.Group("/bookings")
		{
			create := []gin.HandlerFunc{a.CreateBookingHandler}
			if bookingGuard != nil {
				create = append([]gin.HandlerFunc{bookingGuard}, create...)
			}
			bookings.GET("/available-slots/:slug", a.AvailableSlotsHandler)
			bookings.POST("", create...)
			bookings.GET("", a.ListBookingsHandler)
			bookings.GET("/:id", a.GetBookingHandler)
			bookings.PATCH("/:id/cancel", a.CancelBookingHandler)
		}
	}
}

// GET /health
func (a *App) HealthHandler(c *gin.Context) {
	if err := a.Store.Ping(c.Request.Context()); err != nil {
		a.logger(c.Request.Context()).Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":   "error",
			"message":  "Server is running",
			"database": "disconnected",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"message":  "Server is running",
		"database": "connected",
	})
}
