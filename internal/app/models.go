package app

import (
	"time"

	"scheduling-service/internal/model"
)

type eventTypeView struct {
	model.EventType
	BookingURL string `json:"bookingUrl"`
}

func (a *App) eventTypeView(et model.EventType) eventTypeView {
	return eventTypeView{EventType: et, BookingURL: a.Config.FrontendURL + "/book/" + et.Slug}
}

type SlotView struct {
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	DisplayTime string    `json:"displayTime"`
}

type EventTypeSummary struct {
	Name        string  `json:"name"`
	Duration    int     `json:"duration"`
	Description *string `json:"description"`
}

type SlotsResponse struct {
	Slots     []SlotView        `json:"slots"`
	Timezone  string            `json:"timezone"`
	EventType *EventTypeSummary `json:"eventType,omitempty"`
}
