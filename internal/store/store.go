// Package store persists event types, availability and bookings.
package store

import (
	"context"
	"errors"
	"time"

	"scheduling-service/internal/model"
	"scheduling-service/internal/scheduling"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("time slot overlaps a confirmed booking")
	ErrSlugTaken = errors.New("slug already in use")
	ErrInUse     = errors.New("event type has bookings")
)

// Store is the record store behind the HTTP handlers.
//
// CreateBooking must check for overlapping confirmed bookings of the same
// event type and insert atomically with respect to other CreateBooking
// calls; it returns ErrConflict when the interval is taken.
type Store interface {
	CreateEventType(ctx context.Context, et *model.EventType) error
	GetEventType(ctx context.Context, id string) (model.EventType, error)
	GetEventTypeBySlug(ctx context.Context, slug string) (model.EventType, error)
	ListEventTypes(ctx context.Context) ([]model.EventType, error)
	UpdateEventType(ctx context.Context, et *model.EventType) error
	DeleteEventType(ctx context.Context, id string) error

	GetAvailability(ctx context.Context, hostID string) (model.Availability, error)
	SaveAvailability(ctx context.Context, a *model.Availability) error

	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (model.Booking, error)
	ListBookings(ctx context.Context, filter model.BookingFilter, now time.Time) ([]model.Booking, error)
	ConfirmedIntervals(ctx context.Context, eventTypeID string, from, to time.Time) ([]scheduling.Interval, error)
	CancelBooking(ctx context.Context, id string, at time.Time) (model.Booking, error)

	Ping(ctx context.Context) error
	Close()
}
