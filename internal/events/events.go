// Package events publishes booking lifecycle events after they commit.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"scheduling-service/internal/model"
)

const (
	TypeBookingCreated   = "booking.created.v1"
	TypeBookingCancelled = "booking.cancelled.v1"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Booking    BookingPayload `json:"booking"`
}

type BookingPayload struct {
	ID            string              `json:"id"`
	EventTypeID   string              `json:"eventTypeId"`
	EventTypeSlug string              `json:"eventTypeSlug,omitempty"`
	InviteeName   string              `json:"inviteeName"`
	InviteeEmail  string              `json:"inviteeEmail"`
	StartTime     time.Time           `json:"startTime"`
	EndTime       time.Time           `json:"endTime"`
	Status        model.BookingStatus `json:"status"`
}

// BookingEvent builds an event of typ for b.
func BookingEvent(typ string, b model.Booking, at time.Time) Event {
	payload := BookingPayload{
		ID:           b.ID,
		EventTypeID:  b.EventTypeID,
		InviteeName:  b.InviteeName,
		InviteeEmail: b.InviteeEmail,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Status:       b.Status,
	}
	if b.EventType != nil {
		payload.EventTypeSlug = b.EventType.Slug
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: at.UTC(),
		Booking:    payload,
	}
}

// Key partitions events so a booking's history stays ordered.
func (e Event) Key() string {
	return e.Booking.ID
}

func (e Event) Body() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop drops every event. It is used when no driver is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }
