package model

import (
	"errors"
	"fmt"
	"time"

	"scheduling-service/internal/scheduling"
)

// DefaultHostID keys the single availability record.
const DefaultHostID = "default"

var ErrAlreadyCancelled = errors.New("booking is already cancelled")

type EventType struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration"`
	Slug            string    `json:"slug"`
	Description     *string   `json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (e EventType) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

type Availability struct {
	HostID         string                    `json:"-"`
	Timezone       string                    `json:"timezone"`
	WeeklySchedule scheduling.WeeklySchedule `json:"weeklySchedule"`
	CreatedAt      time.Time                 `json:"createdAt,omitzero"`
	UpdatedAt      time.Time                 `json:"updatedAt,omitzero"`
}

// DefaultAvailability is returned before the host has saved a schedule.
func DefaultAvailability(hostID string) Availability {
	return Availability{
		HostID:         hostID,
		Timezone:       "UTC",
		WeeklySchedule: scheduling.EmptyWeek(),
	}
}

// Location resolves the availability's IANA zone.
func (a Availability) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID           string        `json:"id"`
	EventTypeID  string        `json:"eventTypeId"`
	InviteeName  string        `json:"inviteeName"`
	InviteeEmail string        `json:"inviteeEmail"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Notes        *string       `json:"notes"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	EventType    *EventType    `json:"eventType,omitempty"`
}

func (b Booking) Interval() scheduling.Interval {
	return scheduling.Interval{Start: b.StartTime, End: b.EndTime}
}

// Cancel moves a confirmed booking to cancelled. There is no way back.
func (b *Booking) Cancel(at time.Time) error {
	if b.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	b.Status = StatusCancelled
	b.UpdatedAt = at
	return nil
}

type BookingFilter string

const (
	FilterUpcoming BookingFilter = "upcoming"
	FilterPast     BookingFilter = "past"
	FilterAll      BookingFilter = "all"
)

// ParseBookingFilter maps the query value to a filter; empty means all.
func ParseBookingFilter(s string) (BookingFilter, error) {
	switch BookingFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterUpcoming, FilterPast:
		return BookingFilter(s), nil
	}
	return "", fmt.Errorf("invalid filter %q: want upcoming, past or all", s)
}

// Match reports whether b belongs in the filtered list at now.
func (f BookingFilter) Match(b Booking, now time.Time) bool {
	switch f {
	case FilterUpcoming:
		return !b.StartTime.Before(now) && b.Status == StatusConfirmed
	case FilterPast:
		return b.StartTime.Before(now)
	default:
		return true
	}
}
