package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"scheduling-service/internal/model"
	"scheduling-service/internal/scheduling"
)

// Memory keeps everything in process. A single mutex serializes writers, so
// the overlap check and insert in CreateBooking cannot interleave.
type Memory struct {
	mu           sync.RWMutex
	eventTypes   map[string]model.EventType
	availability map[string]model.Availability
	bookings     map[string]model.Booking
}

func NewMemory() *Memory {
	return &Memory{
		eventTypes:   make(map[string]model.EventType),
		availability: make(map[string]model.Availability),
		bookings:     make(map[string]model.Booking),
	}
}

func (m *Memory) CreateEventType(_ context.Context, et *model.EventType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slugUsed(et.Slug, "") {
		return ErrSlugTaken
	}
	now := time.Now().UTC()
	et.ID = uuid.NewString()
	et.CreatedAt, et.UpdatedAt = now, now
	m.eventTypes[et.ID] = *et
	return nil
}

func (m *Memory) slugUsed(slug, exceptID string) bool {
	for id, et := range m.eventTypes {
		if et.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (m *Memory) GetEventType(_ context.Context, id string) (model.EventType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	et, ok := m.eventTypes[id]
	if !ok {
		return model.EventType{}, ErrNotFound
	}
	return et, nil
}

func (m *Memory) GetEventTypeBySlug(_ context.Context, slug string) (model.EventType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, et := range m.eventTypes {
		if et.Slug == slug {
			return et, nil
		}
	}
	return model.EventType{}, ErrNotFound
}

func (m *Memory) ListEventTypes(_ context.Context) ([]model.EventType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.EventType, 0, len(m.eventTypes))
	for _, et := range m.eventTypes {
		out = append(out, et)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateEventType(_ context.Context, et *model.EventType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.eventTypes[et.ID]
	if !ok {
		return ErrNotFound
	}
	if m.slugUsed(et.Slug, et.ID) {
		return ErrSlugTaken
	}
	et.CreatedAt = existing.CreatedAt
	et.UpdatedAt = time.Now().UTC()
	m.eventTypes[et.ID] = *et
	return nil
}

func (m *Memory) DeleteEventType(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.eventTypes[id]; !ok {
		return ErrNotFound
	}
	for _, b := range m.bookings {
		if b.EventTypeID == id {
			return ErrInUse
		}
	}
	delete(m.eventTypes, id)
	return nil
}

func (m *Memory) GetAvailability(_ context.Context, hostID string) (model.Availability, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.availability[hostID]
	if !ok {
		return model.Availability{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) SaveAvailability(_ context.Context, a *model.Availability) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.availability[a.HostID]; ok {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	m.availability[a.HostID] = *a
	return nil
}

func (m *Memory) CreateBooking(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	et, ok := m.eventTypes[b.EventTypeID]
	if !ok {
		return ErrNotFound
	}
	if scheduling.Overlaps(b.Interval(), m.confirmed(b.EventTypeID, b.StartTime, b.EndTime)) {
		return ErrConflict
	}

	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.Status = model.StatusConfirmed
	b.CreatedAt, b.UpdatedAt = now, now
	m.bookings[b.ID] = *b
	b.EventType = &et
	return nil
}

func (m *Memory) confirmed(eventTypeID string, from, to time.Time) []scheduling.Interval {
	window := scheduling.Interval{Start: from, End: to}
	var out []scheduling.Interval
	for _, b := range m.bookings {
		if b.EventTypeID != eventTypeID || b.Status != model.StatusConfirmed {
			continue
		}
		if b.Interval().Overlaps(window) {
			out = append(out, b.Interval())
		}
	}
	return out
}

func (m *Memory) GetBooking(_ context.Context, id string) (model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return m.withEventType(b), nil
}

func (m *Memory) withEventType(b model.Booking) model.Booking {
	if et, ok := m.eventTypes[b.EventTypeID]; ok {
		b.EventType = &et
	}
	return b
}

func (m *Memory) ListBookings(_ context.Context, filter model.BookingFilter, now time.Time) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Booking, 0)
	for _, b := range m.bookings {
		if filter.Match(b, now) {
			out = append(out, m.withEventType(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if filter == model.FilterPast {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *Memory) ConfirmedIntervals(_ context.Context, eventTypeID string, from, to time.Time) ([]scheduling.Interval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.confirmed(eventTypeID, from, to)
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *Memory) CancelBooking(_ context.Context, id string, at time.Time) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	if err := b.Cancel(at); err != nil {
		return model.Booking{}, err
	}
	m.bookings[id] = b
	return m.withEventType(b), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
