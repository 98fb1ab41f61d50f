package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a lookup matches no rows; callers map it to a
// 404 at the API boundary.
var ErrNotFound = errors.New("record not found")

func (d *DB) GetBaby(ctx context.Context, id string) (*Baby, error) {
	const query = `SELECT id, name, birth_date, created_at FROM babies WHERE id = $1`

	var b Baby

	if err := d.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.BirthDate, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "failed to get baby")
	}

	return &b, nil
}

func (d *DB) CreateBaby(ctx context.Context, b *Baby) error {
	const query = `INSERT INTO babies (id, name, birth_date, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := d.pool.Exec(ctx, query, b.ID, b.Name, b.BirthDate, b.CreatedAt); err != nil {
		return errors.Wrap(err, "failed to insert baby")
	}

	return nil
}

func (d *DB) CreateEntry(ctx context.Context, e *TrackingEntry) error {
	const query = `INSERT INTO tracking_entries (id, baby_id, entry_type, recorded_at, note, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := d.pool.Exec(ctx, query, e.ID, e.BabyID, e.EntryType, e.RecordedAt, e.Note, e.CreatedAt); err != nil {
		return errors.Wrap(err, "failed to insert tracking entry")
	}

	return nil
}

// LatestEntryByType returns the most recent tracking entry of the given type,
// or ErrNotFound when the baby has never logged one.
func (d *DB) LatestEntryByType(ctx context.Context, babyID, entryType string) (*TrackingEntry, error) {
	const query = `SELECT id, baby_id, entry_type, recorded_at, note, created_at
        FROM tracking_entries WHERE baby_id = $1 AND entry_type = $2
        ORDER BY recorded_at DESC LIMIT 1`

	var e TrackingEntry

	err := d.pool.QueryRow(ctx, query, babyID, entryType).
		Scan(&e.ID, &e.BabyID, &e.EntryType, &e.RecordedAt, &e.Note, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "failed to get latest entry")
	}

	return &e, nil
}

func (d *DB) ListEntriesBetween(ctx context.Context, babyID string, from, to time.Time) ([]TrackingEntry, error) {
	const query = `SELECT id, baby_id, entry_type, recorded_at, note, created_at
        FROM tracking_entries WHERE baby_id = $1 AND recorded_at >= $2 AND recorded_at <= $3
        ORDER BY recorded_at ASC`

	rows, err := d.pool.Query(ctx, query, babyID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list entries")
	}
	defer rows.Close()

	var entries []TrackingEntry

	for rows.Next() {
		var e TrackingEntry

		if err := rows.Scan(&e.ID, &e.BabyID, &e.EntryType, &e.RecordedAt, &e.Note, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan entry row")
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (d *DB) CreateMeasurement(ctx context.Context, m *GrowthMeasurement) error {
	const query = `INSERT INTO growth_measurements
        (id, baby_id, recorded_at, weight_grams, height_mm, head_circumference_mm, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := d.pool.Exec(ctx, query,
		m.ID, m.BabyID, m.RecordedAt, m.WeightGrams, m.HeightMm, m.HeadCircumferenceMm, m.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert growth measurement")
	}

	return nil
}

// ListMeasurements returns a baby's growth measurements sorted chronologically
// ascending - the order the velocity calculator requires.
func (d *DB) ListMeasurements(ctx context.Context, babyID string) ([]GrowthMeasurement, error) {
	const query = `SELECT id, baby_id, recorded_at, weight_grams, height_mm, head_circumference_mm, created_at
        FROM growth_measurements WHERE baby_id = $1 ORDER BY recorded_at ASC`

	rows, err := d.pool.Query(ctx, query, babyID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list measurements")
	}
	defer rows.Close()

	var measurements []GrowthMeasurement

	for rows.Next() {
		var m GrowthMeasurement

		err := rows.Scan(&m.ID, &m.BabyID, &m.RecordedAt, &m.WeightGrams, &m.HeightMm, &m.HeadCircumferenceMm, &m.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan measurement row")
		}

		measurements = append(measurements, m)
	}

	return measurements, rows.Err()
}

func (d *DB) CreateReminder(ctx context.Context, r *Reminder) error {
	const query = `INSERT INTO reminders
        (id, baby_id, entry_type, enabled, interval_minutes, scheduled_times, based_on_last_entry, after_minutes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := d.pool.Exec(ctx, query,
		r.ID, r.BabyID, r.EntryType, r.Enabled, r.IntervalMinutes, r.ScheduledTimes,
		r.BasedOnLastEntry, r.AfterMinutes, r.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert reminder")
	}

	return nil
}

func (d *DB) ListEnabledReminders(ctx context.Context, babyID string) ([]Reminder, error) {
	const query = `SELECT id, baby_id, entry_type, enabled, interval_minutes, scheduled_times,
        based_on_last_entry, after_minutes, last_fired_at, created_at
        FROM reminders WHERE baby_id = $1 AND enabled = true ORDER BY created_at ASC`

	return d.scanReminders(ctx, query, babyID)
}

// ListAllEnabledReminders is used by the scheduler to scan every baby's
// reminders in one pass.
func (d *DB) ListAllEnabledReminders(ctx context.Context) ([]Reminder, error) {
	const query = `SELECT id, baby_id, entry_type, enabled, interval_minutes, scheduled_times,
        based_on_last_entry, after_minutes, last_fired_at, created_at
        FROM reminders WHERE enabled = true ORDER BY created_at ASC`

	return d.scanReminders(ctx, query)
}

func (d *DB) scanReminders(ctx context.Context, query string, args ...interface{}) ([]Reminder, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reminders")
	}
	defer rows.Close()

	var reminders []Reminder

	for rows.Next() {
		var r Reminder

		err := rows.Scan(&r.ID, &r.BabyID, &r.EntryType, &r.Enabled, &r.IntervalMinutes,
			&r.ScheduledTimes, &r.BasedOnLastEntry, &r.AfterMinutes, &r.LastFiredAt, &r.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan reminder row")
		}

		reminders = append(reminders, r)
	}

	return reminders, rows.Err()
}

func (d *DB) UpdateReminderLastFired(ctx context.Context, id string, firedAt time.Time) error {
	const query = `UPDATE reminders SET last_fired_at = $2 WHERE id = $1`

	if _, err := d.pool.Exec(ctx, query, id, firedAt); err != nil {
		return errors.Wrap(err, "failed to update reminder last fired")
	}

	return nil
}

func (d *DB) CreateScheduledReport(ctx context.Context, r *ScheduledReport) error {
	const query = `INSERT INTO scheduled_reports
        (id, baby_id, frequency, time_of_day, day_of_week, day_of_month, next_send_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := d.pool.Exec(ctx, query,
		r.ID, r.BabyID, r.Frequency, r.TimeOfDay, r.DayOfWeek, r.DayOfMonth, r.NextSendAt, r.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert scheduled report")
	}

	return nil
}

// ListDueReports returns scheduled reports whose next_send_at is at or before
// asOf.
func (d *DB) ListDueReports(ctx context.Context, asOf time.Time) ([]ScheduledReport, error) {
	const query = `SELECT id, baby_id, frequency, time_of_day, day_of_week, day_of_month, next_send_at, created_at
        FROM scheduled_reports WHERE next_send_at <= $1 ORDER BY next_send_at ASC`

	rows, err := d.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list due reports")
	}
	defer rows.Close()

	var reports []ScheduledReport

	for rows.Next() {
		var r ScheduledReport

		err := rows.Scan(&r.ID, &r.BabyID, &r.Frequency, &r.TimeOfDay, &r.DayOfWeek,
			&r.DayOfMonth, &r.NextSendAt, &r.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan scheduled report row")
		}

		reports = append(reports, r)
	}

	return reports, rows.Err()
}

func (d *DB) UpdateReportNextSendAt(ctx context.Context, id string, nextSendAt time.Time) error {
	const query = `UPDATE scheduled_reports SET next_send_at = $2 WHERE id = $1`

	if _, err := d.pool.Exec(ctx, query, id, nextSendAt); err != nil {
		return errors.Wrap(err, "failed to update report next send")
	}

	return nil
}
