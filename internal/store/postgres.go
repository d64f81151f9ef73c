package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"scheduling-service/internal/model"
	"scheduling-service/internal/scheduling"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgExclusionViolation  = "23P01"
)

type Postgres struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// Open connects a tuned pool and verifies it with a ping.
func Open(ctx context.Context, databaseURL string, log zerolog.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return NewPostgres(pool, log), nil
}

func NewPostgres(pool *pgxpool.Pool, log zerolog.Logger) *Postgres {
	return &Postgres{pool: pool, log: log.With().Str("component", "store").Logger()}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// validID rejects ids that would fail the uuid cast before reaching postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const eventTypeColumns = `id, name, duration, slug, description, created_at, updated_at`

func scanEventType(row pgx.Row) (model.EventType, error) {
	var et model.EventType
	err := row.Scan(&et.ID, &et.Name, &et.DurationMinutes, &et.Slug, &et.Description, &et.CreatedAt, &et.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.EventType{}, ErrNotFound
	}
	if err != nil {
		return model.EventType{}, err
	}
	et.CreatedAt, et.UpdatedAt = et.CreatedAt.UTC(), et.UpdatedAt.UTC()
	return et, nil
}

func (p *Postgres) CreateEventType(ctx context.Context, et *model.EventType) error {
	et.ID = uuid.NewString()
	err := p.pool.QueryRow(ctx, `
		INSERT INTO event_types (id, name, duration, slug, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, et.ID, et.Name, et.DurationMinutes, et.Slug, et.Description).Scan(&et.CreatedAt, &et.UpdatedAt)
	if pgCode(err) == pgUniqueViolation {
		return ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("insert event type: %w", err)
	}
	et.CreatedAt, et.UpdatedAt = et.CreatedAt.UTC(), et.UpdatedAt.UTC()
	return nil
}

func (p *Postgres) GetEventType(ctx context.Context, id string) (model.EventType, error) {
	if !validID(id) {
		return model.EventType{}, ErrNotFound
	}
	return getEventType(ctx, p.pool, id)
}

func getEventType(ctx context.Context, q querier, id string) (model.EventType, error) {
	return scanEventType(q.QueryRow(ctx, `SELECT `+eventTypeColumns+` FROM event_types WHERE id = $1`, id))
}

func (p *Postgres) GetEventTypeBySlug(ctx context.Context, slug string) (model.EventType, error) {
	return scanEventType(p.pool.QueryRow(ctx, `SELECT `+eventTypeColumns+` FROM event_types WHERE slug = $1`, slug))
}

func (p *Postgres) ListEventTypes(ctx context.Context) ([]model.EventType, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+eventTypeColumns+` FROM event_types ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	defer rows.Close()

	out := make([]model.EventType, 0)
	for rows.Next() {
		et, err := scanEventType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateEventType(ctx context.Context, et *model.EventType) error {
	if !validID(et.ID) {
		return ErrNotFound
	}
	err := p.pool.QueryRow(ctx, `
		UPDATE event_types
		SET name = $2, duration = $3, slug = $4, description = $5, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, et.ID, et.Name, et.DurationMinutes, et.Slug, et.Description).Scan(&et.CreatedAt, &et.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case pgCode(err) == pgUniqueViolation:
		return ErrSlugTaken
	case err != nil:
		return fmt.Errorf("update event type: %w", err)
	}
	et.CreatedAt, et.UpdatedAt = et.CreatedAt.UTC(), et.UpdatedAt.UTC()
	return nil
}

func (p *Postgres) DeleteEventType(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM event_types WHERE id = $1`, id)
	if pgCode(err) == pgForeignKeyViolation {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete event type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetAvailability(ctx context.Context, hostID string) (model.Availability, error) {
	a := model.Availability{HostID: hostID}
	err := p.pool.QueryRow(ctx, `
		SELECT timezone, weekly_schedule, created_at, updated_at
		FROM availability WHERE host_id = $1
	`, hostID).Scan(&a.Timezone, &a.WeeklySchedule, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Availability{}, ErrNotFound
	}
	if err != nil {
		return model.Availability{}, fmt.Errorf("get availability: %w", err)
	}
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return a, nil
}

func (p *Postgres) SaveAvailability(ctx context.Context, a *model.Availability) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO availability (host_id, timezone, weekly_schedule)
		VALUES ($1, $2, $3)
		ON CONFLICT (host_id) DO UPDATE
		SET timezone = EXCLUDED.timezone,
			weekly_schedule = EXCLUDED.weekly_schedule,
			updated_at = now()
		RETURNING created_at, updated_at
	`, a.HostID, a.Timezone, a.WeeklySchedule).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save availability: %w", err)
	}
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return nil
}

// CreateBooking serializes creators of the same event type with a
// transaction-scoped advisory lock, re-reads the confirmed bookings and
// inserts only when nothing overlaps. The exclusion constraint on bookings
// backs this up for writers that bypass the lock.
func (p *Postgres) CreateBooking(ctx context.Context, b *model.Booking) error {
	if !validID(b.EventTypeID) {
		return ErrNotFound
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, b.EventTypeID); err != nil {
		return fmt.Errorf("lock event type: %w", err)
	}

	et, err := getEventType(ctx, tx, b.EventTypeID)
	if err != nil {
		return err
	}

	existing, err := confirmedIntervals(ctx, tx, b.EventTypeID, b.StartTime, b.EndTime)
	if err != nil {
		return err
	}
	if scheduling.Overlaps(b.Interval(), existing) {
		return ErrConflict
	}

	b.ID = uuid.NewString()
	b.Status = model.StatusConfirmed
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (id, event_type_id, invitee_name, invitee_email, start_time, end_time, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, b.ID, b.EventTypeID, b.InviteeName, b.InviteeEmail, b.StartTime, b.EndTime, b.Notes, b.Status).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	switch pgCode(err) {
	case pgExclusionViolation:
		return ErrConflict
	case pgForeignKeyViolation:
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if pgCode(err) == pgExclusionViolation {
			return ErrConflict
		}
		return fmt.Errorf("commit booking: %w", err)
	}
	b.CreatedAt, b.UpdatedAt = b.CreatedAt.UTC(), b.UpdatedAt.UTC()
	b.EventType = &et
	return nil
}

const bookingSelect = `
	SELECT b.id, b.event_type_id, b.invitee_name, b.invitee_email, b.start_time, b.end_time,
		b.notes, b.status, b.created_at, b.updated_at,
		e.id, e.name, e.duration, e.slug, e.description, e.created_at, e.updated_at
	FROM bookings b
	JOIN event_types e ON e.id = b.event_type_id`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	var et model.EventType
	err := row.Scan(
		&b.ID, &b.EventTypeID, &b.InviteeName, &b.InviteeEmail, &b.StartTime, &b.EndTime,
		&b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		&et.ID, &et.Name, &et.DurationMinutes, &et.Slug, &et.Description, &et.CreatedAt, &et.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	b.StartTime, b.EndTime = b.StartTime.UTC(), b.EndTime.UTC()
	b.CreatedAt, b.UpdatedAt = b.CreatedAt.UTC(), b.UpdatedAt.UTC()
	et.CreatedAt, et.UpdatedAt = et.CreatedAt.UTC(), et.UpdatedAt.UTC()
	b.EventType = &et
	return b, nil
}

func (p *Postgres) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	if !validID(id) {
		return model.Booking{}, ErrNotFound
	}
	return scanBooking(p.pool.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
}

func (p *Postgres) ListBookings(ctx context.Context, filter model.BookingFilter, now time.Time) ([]model.Booking, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch filter {
	case model.FilterUpcoming:
		rows, err = p.pool.Query(ctx, bookingSelect+`
			WHERE b.start_time >= $1 AND b.status = 'confirmed'
			ORDER BY b.start_time ASC`, now)
	case model.FilterPast:
		rows, err = p.pool.Query(ctx, bookingSelect+`
			WHERE b.start_time < $1
			ORDER BY b.start_time DESC`, now)
	default:
		rows, err = p.pool.Query(ctx, bookingSelect+` ORDER BY b.start_time ASC`)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) ConfirmedIntervals(ctx context.Context, eventTypeID string, from, to time.Time) ([]scheduling.Interval, error) {
	if !validID(eventTypeID) {
		return nil, nil
	}
	return confirmedIntervals(ctx, p.pool, eventTypeID, from, to)
}

func confirmedIntervals(ctx context.Context, q querier, eventTypeID string, from, to time.Time) ([]scheduling.Interval, error) {
	rows, err := q.Query(ctx, `
		SELECT start_time, end_time
		FROM bookings
		WHERE event_type_id = $1
			AND status = 'confirmed'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, eventTypeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query confirmed bookings: %w", err)
	}
	defer rows.Close()

	var out []scheduling.Interval
	for rows.Next() {
		var iv scheduling.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (p *Postgres) CancelBooking(ctx context.Context, id string, at time.Time) (model.Booking, error) {
	if !validID(id) {
		return model.Booking{}, ErrNotFound
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return model.Booking{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b, err := scanBooking(tx.QueryRow(ctx, bookingSelect+` WHERE b.id = $1 FOR UPDATE OF b`, id))
	if err != nil {
		return model.Booking{}, err
	}
	if err := b.Cancel(at); err != nil {
		return model.Booking{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`, id, b.Status, b.UpdatedAt); err != nil {
		return model.Booking{}, fmt.Errorf("cancel booking: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Booking{}, fmt.Errorf("commit cancel: %w", err)
	}
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}
