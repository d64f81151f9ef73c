package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheduling-service/internal/events"
	"scheduling-service/internal/model"
	"scheduling-service/internal/scheduling"
	"scheduling-service/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Sunday evening before the Monday under test.
var sundayEvening = time.Date(2030, time.March, 3, 20, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	app    *App
	router *gin.Engine
	pub    *recorder
	now    time.Time
}

func newFixture(t *testing.T, st store.Store) *fixture {
	t.Helper()
	if st == nil {
		st = store.NewMemory()
	}
	f := &fixture{pub: &recorder{}, now: sundayEvening}
	a, err := New(st, f.pub, zerolog.Nop(), Config{
		FrontendURL: "http://localhost:5174",
		HostID:      model.DefaultHostID,
	})
	require.NoError(t, err)
	a.now = func() time.Time { return f.now }
	f.app = a

	f.router = gin.New()
	a.Routes(f.router, nil)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func week(day string, windows ...scheduling.TimeWindow) scheduling.WeeklySchedule {
	ws := scheduling.EmptyWeek()
	ws[day] = windows
	return ws
}

func (f *fixture) saveAvailability(t *testing.T, tz string, ws scheduling.WeeklySchedule) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/availability", gin.H{"timezone": tz, "weeklySchedule": ws})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (f *fixture) createEventType(t *testing.T, slug string, minutes int) eventTypeView {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/event-types", gin.H{"name": "Intro call", "duration": minutes, "slug": slug})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[eventTypeView](t, w)
}

func (f *fixture) book(t *testing.T, eventTypeID, start string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/api/bookings", gin.H{
		"eventTypeId":  eventTypeID,
		"inviteeName":  "Ada Lovelace",
		"inviteeEmail": "ada@example.com",
		"startTime":    start,
	})
}

func (f *fixture) slots(t *testing.T, slug, date string) SlotsResponse {
	t.Helper()
	w := f.do(t, http.MethodGet, "/api/bookings/available-slots/"+slug+"?date="+date, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[SlotsResponse](t, w)
}

func startTimes(resp SlotsResponse) []string {
	var out []string
	for _, s := range resp.Slots {
		out = append(out, s.StartTime.UTC().Format(time.RFC3339))
	}
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","message":"Server is running","database":"connected"}`, w.Body.String())
}

type downStore struct{ store.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthDatabaseDown(t *testing.T) {
	f := newFixture(t, downStore{store.NewMemory()})
	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "disconnected", body["database"])
}

func TestEventTypeLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	et := f.createEventType(t, "intro", 30)
	assert.NotEmpty(t, et.ID)
	assert.Equal(t, "http://localhost:5174/book/intro", et.BookingURL)
	assert.Nil(t, et.Description)

	w := f.do(t, http.MethodPost, "/api/event-types", gin.H{"name": "Other", "duration": 15, "slug": "intro"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode[errorBody](t, w).Code)

	w = f.do(t, http.MethodGet, "/api/event-types/slug/intro", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, et.ID, decode[eventTypeView](t, w).ID)

	w = f.do(t, http.MethodPut, "/api/event-types/"+et.ID, gin.H{"duration": 45, "description": "Say hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[eventTypeView](t, w)
	assert.Equal(t, 45, updated.DurationMinutes)
	assert.Equal(t, "Intro call", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Say hello", *updated.Description)

	w = f.do(t, http.MethodGet, "/api/event-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]eventTypeView](t, w), 1)

	w = f.do(t, http.MethodDelete, "/api/event-types/"+et.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Event type deleted successfully"}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/event-types/"+et.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Event type not found", decode[errorBody](t, w).Error)
}

func TestEventTypeValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"duration": 30, "slug": "a"}},
		{"zero duration", gin.H{"name": "A", "duration": 0, "slug": "a"}},
		{"negative duration", gin.H{"name": "A", "duration": -5, "slug": "a"}},
		{"bad slug", gin.H{"name": "A", "duration": 30, "slug": "has space"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/event-types", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Code)
		})
	}
}

func TestDeleteEventTypeWithBookings(t *testing.T) {
	f := newFixture(t, nil)
	f.saveAvailability(t, "UTC", week("monday", scheduling.TimeWindow{Start: "09:00", End: "10:00"}))
	et := f.createEventType(t, "intro", 30)
	require.Equal(t, http.StatusCreated, f.book(t, et.ID, "2030-03-04T09:00:00Z").Code)

	w := f.do(t, http.MethodDelete, "/api/event-types/"+et.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAvailabilityDefaultsAndSave(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)
	def := decode[model.Availability](t, w)
	assert.Equal(t, "UTC", def.Timezone)
	assert.Len(t, def.WeeklySchedule, 7)
	assert.NotContains(t, w.Body.String(), "createdAt")

	f.saveAvailability(t, "Asia/Tokyo", week("monday", scheduling.TimeWindow{Start: "9:00", End: "12:00"}))

	w = f.do(t, http.MethodGet, "/api/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Availability](t, w)
	assert.Equal(t, "Asia/Tokyo", got.Timezone)
	assert.Equal(t, []scheduling.TimeWindow{{Start: "09:00", End: "12:00"}}, got.WeeklySchedule["monday"])
}

func TestAvailabilityValidation(t *testing.T) {
	f := newFixture(t, nil)

	partial := scheduling.WeeklySchedule{"monday": {{Start: "09:00", End: "10:00"}}}
	tests := []struct {
		name string
		body gin.H
		want string
	}{
		{"unknown timezone", gin.H{"timezone": "Mars/Base", "weeklySchedule": scheduling.EmptyWeek()}, "Invalid timezone"},
		{"missing days", gin.H{"timezone": "UTC", "weeklySchedule": partial}, "weeklySchedule must contain all seven days of the week"},
		{"inverted window", gin.H{"timezone": "UTC", "weeklySchedule": week("monday", scheduling.TimeWindow{Start: "10:00", End: "09:00"})}, ""},
		{"bad clock", gin.H{"timezone": "UTC", "weeklySchedule": week("monday", scheduling.TimeWindow{Start: "9am", End: "10:00"})}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/availability", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			body := decode[errorBody](t, w)
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
			if tt.want != "" {
				assert.Equal(t, tt.want, body.Error)
			}
		})
	}
}

func TestTimezones(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/api/availability/timezones", nil)
	require.Equal(t, http.StatusOK, w.Code)
	zones := decode[[]string](t, w)
	assert.Contains(t, zones, "UTC")
	assert.Contains(t, zones, "Asia/Tokyo")
}

func TestAvailableSlotsWithoutAvailability(t *testing.T) {
	f := newFixture(t, nil)
	f.createEventType(t, "intro", 30)

	resp := f.slots(t, "intro", "2030-03-04")
	assert.Empty(t, resp.Slots)
	assert.NotNil(t, resp.Slots)
	assert.Equal(t, "UTC", resp.Timezone)
	require.NotNil(t, resp.EventType)
	assert.Equal(t, 30, resp.EventType.Duration)
}

func TestAvailableSlotsErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.createEventType(t, "intro", 30)

	w := f.do(t, http.MethodGet, "/api/bookings/available-slots/intro", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Date parameter is required (YYYY-MM-DD)", decode[errorBody](t, w).Error)

	w = f.do(t, http.MethodGet, "/api/bookings/available-slots/intro?date=03/04/2030", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD", decode[errorBody](t, w).Error)

	w = f.do(t, http.MethodGet, "/api/bookings/available-slots/missing?date=2030-03-04", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvailableSlotsHostTimezone(t *testing.T) {
	f := newFixture(t, nil)
	f.saveAvailability(t, "Asia/Tokyo", week("monday", scheduling.TimeWindow{Start: "09:00", End: "10:00"}))
	f.createEventType(t, "intro", 30)
	// 2030-03-04 09:00 in Tokyo is midnight UTC; make sure it is still ahead.
	f.now = time.Date(2030, time.March, 3, 12, 0, 0, 0, time.UTC)

	resp := f.slots(t, "intro", "2030-03-04")
	assert.Equal(t, "Asia/Tokyo", resp.Timezone)
	assert.Equal(t, []string{"2030-03-04T00:00:00Z", "2030-03-04T00:30:00Z"}, startTimes(resp))
	assert.Equal(t, "09:00", resp.Slots[0].DisplayTime)
	assert.Equal(t, "09:30", resp.Slots[1].DisplayTime)
}

func TestBookingFlow(t *testing.T) {
	f := newFixture(t, nil)
	f.saveAvailability(t, "UTC", week("monday", scheduling.TimeWindow{Start: "09:00", End: "10:00"}))
	et := f.createEventType(t, "intro", 30)

	assert.Equal(t, []string{"2030-03-04T09:00:00Z", "2030-03-04T09:30:00Z"}, startTimes(f.slots(t, "intro", "2030-03-04")))

	w := f.book(t, et.ID, "2030-03-04T09:00:00Z")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	b := decode[model.Booking](t, w)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, time.Date(2030, time.March, 4, 9, 30, 0, 0, time.UTC), b.EndTime.UTC())
	assert.Nil(t, b.Notes)

	assert.Equal(t, []string{"2030-03-04T09:30:00Z"}, startTimes(f.slots(t, "intro", "2030-03-04")))

	w = f.book(t, et.ID, "2030-03-04T09:00:00Z")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "This time slot is no longer available. Please select another time.", decode[errorBody](t, w).Error)

	w = f.do(t, http.MethodGet, "/api/bookings/"+b.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Booking](t, w)
	require.NotNil(t, got.EventType)
	assert.Equal(t, "intro", got.EventType.Slug)

	w = f.do(t, http.MethodPatch, "/api/bookings/"+b.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusCancelled, decode[model.Booking](t, w).Status)

	w = f.do(t, http.MethodPatch, "/api/bookings/"+b.ID+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATE", decode[errorBody](t, w).Code)

	// Cancelling frees the slot again.
	assert.Len(t, f.slots(t, "intro", "2030-03-04").Slots, 2)

	assert.Equal(t, []string{events.TypeBookingCreated, events.TypeBookingCancelled}, f.pub.types())
}

func TestCreateBookingRejectsOffSchedule(t *testing.T) {
	f := newFixture(t, nil)
	f.saveAvailability(t, "UTC", week("monday", scheduling.TimeWindow{Start: "09:00", End: "10:00"}))
	et := f.createEventType(t, "intro", 30)

	for _, start := range []string{
		"2030-03-04T09:15:00Z", // off the grid
		"2030-03-04T09:45:00Z", // overruns the window
		"2030-03-05T09:00:00Z", // no windows on Tuesday
		"2030-03-03T09:00:00Z", // in the past
	} {
		w := f.book(t, et.ID, start)
		assert.Equal(t, http.StatusBadRequest, w.Code, start)
		assert.Equal(t, "The selected time is not an available slot", decode[errorBody](t, w).Error, start)
	}
	assert.Empty(t, f.pub.types())
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t, nil)
	f.saveAvailability(t, "UTC", week("monday", scheduling.TimeWindow{Start: "09:00", End: "10:00"}))
	et := f.createEventType(t, "intro", 30)

	w := f.do(t, http.MethodPost, "/api/bookings", gin.H{
		"eventTypeId":  et.ID,
		"inviteeName":  "Ada",
		"inviteeEmail": "not-an-email",
		"startTime":    "2030-03-04T09:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email format", decode[errorBody](t, w).Error)

	w = f.do(t, http.MethodPost, "/api/bookings", gin.H{"eventTypeId": et.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Code)

	w = f.book(t, "00000000-0000-0000-0000-000000000000", "2030-03-04T09:00:00Z")
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingKeepsNotes(t *testing.T) {
	f := newFixture(t, nil)
	f.saveAvailability(t, "UTC", week("monday", scheduling.TimeWindow{Start: "09:00", End: "10:00"}))
	et := f.createEventType(t, "intro", 30)

	w := f.do(t, http.MethodPost, "/api/bookings", gin.H{
		"eventTypeId":  et.ID,
		"inviteeName":  "  Ada  ",
		"inviteeEmail": "ada@example.com",
		"startTime":    "2030-03-04T09:30:00Z",
		"notes":        " bring slides ",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	b := decode[model.Booking](t, w)
	assert.Equal(t, "Ada", b.InviteeName)
	require.NotNil(t, b.Notes)
	assert.Equal(t, "bring slides", *b.Notes)
}

func TestCreateBookingSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.pub.err = errors.New("broker down")
	f.saveAvailability(t, "UTC", week("monday", scheduling.TimeWindow{Start: "09:00", End: "10:00"}))
	et := f.createEventType(t, "intro", 30)

	w := f.book(t, et.ID, "2030-03-04T09:00:00Z")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, f.pub.types(), 1)
}

func TestConcurrentBookingsSameSlot(t *testing.T) {
	f := newFixture(t, nil)
	f.saveAvailability(t, "UTC", week("monday", scheduling.TimeWindow{Start: "09:00", End: "10:00"}))
	et := f.createEventType(t, "intro", 30)

	body, err := json.Marshal(gin.H{
		"eventTypeId":  et.ID,
		"inviteeName":  "Ada Lovelace",
		"inviteeEmail": "ada@example.com",
		"startTime":    "2030-03-04T09:00:00Z",
	})
	require.NoError(t, err)

	// Workers only touch the router; assertions stay on the test goroutine.
	const n = 10
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
}

func TestListBookingsFilters(t *testing.T) {
	f := newFixture(t, nil)
	f.saveAvailability(t, "UTC", week("monday", scheduling.TimeWindow{Start: "09:00", End: "11:00"}))
	et := f.createEventType(t, "intro", 30)

	first := decode[model.Booking](t, f.book(t, et.ID, "2030-03-04T09:00:00Z"))
	second := decode[model.Booking](t, f.book(t, et.ID, "2030-03-04T10:00:00Z"))
	third := decode[model.Booking](t, f.book(t, et.ID, "2030-03-04T10:30:00Z"))
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPatch, "/api/bookings/"+third.ID+"/cancel", nil).Code)

	f.now = time.Date(2030, time.March, 4, 9, 45, 0, 0, time.UTC)

	ids := func(filter string) []string {
		w := f.do(t, http.MethodGet, "/api/bookings?filter="+filter, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out []string
		for _, b := range decode[[]model.Booking](t, w) {
			out = append(out, b.ID)
		}
		return out
	}

	assert.Equal(t, []string{second.ID}, ids("upcoming"))
	assert.Equal(t, []string{first.ID}, ids("past"))
	assert.ElementsMatch(t, []string{first.ID, second.ID, third.ID}, ids("all"))
	assert.ElementsMatch(t, []string{first.ID, second.ID, third.ID}, ids(""))

	w := f.do(t, http.MethodGet, "/api/bookings?filter=soon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownBooking(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/bookings/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Booking not found", decode[errorBody](t, w).Error)

	w = f.do(t, http.MethodPatch, "/api/bookings/00000000-0000-0000-0000-000000000000/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingGuardOnlyWrapsCreate(t *testing.T) {
	f := newFixture(t, nil)
	r := gin.New()
	f.app.Routes(r, func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": "RATE_LIMITED"})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
