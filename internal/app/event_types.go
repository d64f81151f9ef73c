package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"scheduling-service/internal/model"
	"scheduling-service/internal/validation"
)

func (a *App) CreateEventType(ctx context.Context, in validation.EventTypeInput) (model.EventType, error) {
	if err := a.Validator.Validate(in); err != nil {
		return model.EventType{}, err
	}
	et := model.EventType{
		Name:            in.Name,
		DurationMinutes: in.Duration,
		Slug:            in.Slug,
		Description:     emptyToNil(in.Description),
	}
	if err := a.Store.CreateEventType(ctx, &et); err != nil {
		return model.EventType{}, storeError(err, "Event type")
	}
	a.logger(ctx).Info().Str("event_type_id", et.ID).Str("slug", et.Slug).Msg("event type created")
	return et, nil
}

func (a *App) UpdateEventType(ctx context.Context, id string, in validation.EventTypeUpdate) (model.EventType, error) {
	if err := a.Validator.Validate(in); err != nil {
		return model.EventType{}, err
	}
	et, err := a.Store.GetEventType(ctx, id)
	if err != nil {
		return model.EventType{}, storeError(err, "Event type")
	}
	if in.Name != nil {
		et.Name = *in.Name
	}
	if in.Duration != nil {
		et.DurationMinutes = *in.Duration
	}
	if in.Slug != nil {
		et.Slug = *in.Slug
	}
	if in.Description != nil {
		et.Description = emptyToNil(in.Description)
	}
	if err := a.Store.UpdateEventType(ctx, &et); err != nil {
		return model.EventType{}, storeError(err, "Event type")
	}
	return et, nil
}

func (a *App) DeleteEventType(ctx context.Context, id string) error {
	if err := a.Store.DeleteEventType(ctx, id); err != nil {
		return storeError(err, "Event type")
	}
	a.logger(ctx).Info().Str("event_type_id", id).Msg("event type deleted")
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// POST /api/event-types
func (a *App) CreateEventTypeHandler(c *gin.Context) {
	var in validation.EventTypeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		a.writeError(c, badJSON(err))
		return
	}
	et, err := a.CreateEventType(c.Request.Context(), in)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a.eventTypeView(et))
}

// GET /api/event-types
func (a *App) ListEventTypesHandler(c *gin.Context) {
	list, err := a.Store.ListEventTypes(c.Request.Context())
	if err != nil {
		a.writeError(c, storeError(err, "Event type"))
		return
	}
	out := make([]eventTypeView, 0, len(list))
	for _, et := range list {
		out = append(out, a.eventTypeView(et))
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/event-types/:id
func (a *App) GetEventTypeHandler(c *gin.Context) {
	et, err := a.Store.GetEventType(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, storeError(err, "Event type"))
		return
	}
	c.JSON(http.StatusOK, a.eventTypeView(et))
}

// GET /api/event-types/slug/:slug
func (a *App) GetEventTypeBySlugHandler(c *gin.Context) {
	et, err := a.Store.GetEventTypeBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		a.writeError(c, storeError(err, "Event type"))
		return
	}
	c.JSON(http.StatusOK, a.eventTypeView(et))
}

// PUT /api/event-types/:id
func (a *App) UpdateEventTypeHandler(c *gin.Context) {
	var in validation.EventTypeUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		a.writeError(c, badJSON(err))
		return
	}
	et, err := a.UpdateEventType(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.eventTypeView(et))
}

// DELETE /api/event-types/:id
func (a *App) DeleteEventTypeHandler(c *gin.Context) {
	if err := a.DeleteEventType(c.Request.Context(), c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event type deleted successfully"})
}
