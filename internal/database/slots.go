package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"salonbot/internal/models"
)

// AddSlot inserts a slot row. Duplicate (date, time, service) keys are
// a no-op, not an error.
func (db *DB) AddSlot(ctx context.Context, date, tm, service string) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO slots (date, time, service_name) VALUES (?, ?, ?)`,
		date, tm, service,
	)
	if err != nil {
		return fmt.Errorf("add slot: %w", err)
	}
	return nil
}

// DeleteSlot removes a free slot. Deleting a booked slot would orphan
// its appointment, so it fails with ErrSlotBooked.
func (db *DB) DeleteSlot(ctx context.Context, id int64) error {
	var booked bool
	err := db.QueryRowContext(ctx, `SELECT is_booked FROM slots WHERE id = ?`, id).Scan(&booked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if booked {
		return ErrSlotBooked
	}
	_, err = db.ExecContext(ctx, `DELETE FROM slots WHERE id = ? AND is_booked = 0`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// ListSlots returns the whole slot inventory ordered by key.
func (db *DB) ListSlots(ctx context.Context) ([]models.Slot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, date, time, service_name, is_booked
		FROM slots ORDER BY `+dateKeySort+`, time, service_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.Slot
	for rows.Next() {
		var s models.Slot
		if err := rows.Scan(&s.ID, &s.Date, &s.Time, &s.ServiceName, &s.IsBooked); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// AvailableDates returns distinct dates with at least one free slot for
// the service, ascending.
func (db *DB) AvailableDates(ctx context.Context, service string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT date FROM slots
		WHERE service_name = ? AND is_booked = 0
		ORDER BY `+dateKeySort, service)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// AvailableTimes returns free slot times for a date and service,
// ascending.
func (db *DB) AvailableTimes(ctx context.Context, date, service string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT time FROM slots
		WHERE date = ? AND service_name = ? AND is_booked = 0
		ORDER BY time`, date, service)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}
