package validation

import (
	"strings"
	"time"

	"scheduling-service/internal/scheduling"
)

type AvailabilityInput struct {
	Timezone       string                    `json:"timezone" validate:"required,allowed_tz"`
	WeeklySchedule scheduling.WeeklySchedule `json:"weeklySchedule" validate:"required,weekdays,dive,keys,oneof=sunday monday tuesday wednesday thursday friday saturday,endkeys,required,dive"`
}

type BookingInput struct {
	EventTypeID  string  `json:"eventTypeId" validate:"required"`
	InviteeName  string  `json:"inviteeName" validate:"required,max=200"`
	InviteeEmail string  `json:"inviteeEmail" validate:"required,invitee_email"`
	StartTime    string  `json:"startTime" validate:"required,instant"`
	Notes        *string `json:"notes" validate:"omitempty,max=2000"`
}

// Trim strips surrounding whitespace from the free-text fields.
func (in *BookingInput) Trim() {
	in.EventTypeID = strings.TrimSpace(in.EventTypeID)
	in.InviteeName = strings.TrimSpace(in.InviteeName)
	in.InviteeEmail = strings.TrimSpace(in.InviteeEmail)
	in.StartTime = strings.TrimSpace(in.StartTime)
	if in.Notes != nil {
		n := strings.TrimSpace(*in.Notes)
		if n == "" {
			in.Notes = nil
		} else {
			in.Notes = &n
		}
	}
}

// Start returns the parsed start instant. Call after Validate.
func (in BookingInput) Start() (time.Time, error) {
	return time.Parse(time.RFC3339, in.StartTime)
}

type EventTypeInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Duration    int     `json:"duration" validate:"required,gt=0,lte=1440"`
	Slug        string  `json:"slug" validate:"required,max=100,slug"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// EventTypeUpdate is a partial edit; nil fields are left unchanged.
type EventTypeUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Duration    *int    `json:"duration" validate:"omitempty,gt=0,lte=1440"`
	Slug        *string `json:"slug" validate:"omitempty,max=100,slug"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}
