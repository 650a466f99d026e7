package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"salonbot/internal/models"
)

const appointmentColumns = `id, caller_id, service_name, date, time, full_name, allergy_flag, phone, created_at`

func scanAppointment(row interface{ Scan(...any) error }) (*models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(&a.ID, &a.CallerID, &a.ServiceName, &a.Date, &a.Time,
		&a.FullName, &a.HasAllergy, &a.Phone, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ReserveAppointment atomically books a slot and records the
// appointment. The duplicate check, the caller cap and the slot
// check-and-flip all run in one transaction so no concurrent
// reservation can observe the slot as free in between.
func (db *DB) ReserveAppointment(ctx context.Context, appt *models.Appointment, maxActive int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reserve tx: %w", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE caller_id = ? AND date = ? AND time = ?`,
		appt.CallerID, appt.Date, appt.Time,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if existing > 0 {
		return ErrDuplicateBooking
	}

	if maxActive > 0 {
		var active int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM appointments WHERE caller_id = ?`,
			appt.CallerID,
		).Scan(&active)
		if err != nil {
			return fmt.Errorf("active count: %w", err)
		}
		if active >= maxActive {
			return ErrCallerLimit
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE slots SET is_booked = 1
		WHERE date = ? AND time = ? AND service_name = ? AND is_booked = 0`,
		appt.Date, appt.Time, appt.ServiceName,
	)
	if err != nil {
		return fmt.Errorf("book slot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotConflict
	}

	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now()
	}
	ins, err := tx.ExecContext(ctx, `
		INSERT INTO appointments (caller_id, service_name, date, time, full_name, allergy_flag, phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.CallerID, appt.ServiceName, appt.Date, appt.Time,
		appt.FullName, appt.HasAllergy, appt.Phone, appt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	appt.ID, _ = ins.LastInsertId()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reserve tx: %w", err)
	}
	return nil
}

// RemoveAppointment deletes an appointment and frees its slot in one
// transaction.
func (db *DB) RemoveAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete appointment: %w", err)
	}

	// The slot row may be gone if the operator removed it; freeing is
	// then a no-op rather than a failure.
	_, err = tx.ExecContext(ctx, `
		UPDATE slots SET is_booked = 0
		WHERE date = ? AND time = ? AND service_name = ?`,
		appt.Date, appt.Time, appt.ServiceName,
	)
	if err != nil {
		return nil, fmt.Errorf("free slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel tx: %w", err)
	}
	return appt, nil
}

// MoveAppointment rebooks an appointment under a new (date, time) key,
// preserving the caller and personal details. The new slot must exist,
// be free and belong to the same service.
func (db *DB) MoveAppointment(ctx context.Context, id int64, newDate, newTime string) (*models.Appointment, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin move tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE slots SET is_booked = 1
		WHERE date = ? AND time = ? AND service_name = ? AND is_booked = 0`,
		newDate, newTime, appt.ServiceName,
	)
	if err != nil {
		return nil, fmt.Errorf("book new slot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrSlotConflict
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE slots SET is_booked = 0
		WHERE date = ? AND time = ? AND service_name = ?`,
		appt.Date, appt.Time, appt.ServiceName,
	); err != nil {
		return nil, fmt.Errorf("free old slot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE appointments SET date = ?, time = ? WHERE id = ?`,
		newDate, newTime, id,
	); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move tx: %w", err)
	}

	appt.Date = newDate
	appt.Time = newTime
	return appt, nil
}

// GetAppointment loads one appointment by id.
func (db *DB) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return appt, err
}

// ListAppointments returns every appointment ordered by key.
func (db *DB) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	return db.listAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments ORDER BY `+dateKeySort+`, time`)
}

// ListAppointmentsByCaller returns a caller's appointments ordered by key.
func (db *DB) ListAppointmentsByCaller(ctx context.Context, callerID int64) ([]models.Appointment, error) {
	return db.listAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE caller_id = ? ORDER BY `+dateKeySort+`, time`,
		callerID)
}

// AppointmentsOnDate returns appointments whose date key matches.
func (db *DB) AppointmentsOnDate(ctx context.Context, date string) ([]models.Appointment, error) {
	return db.listAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE date = ? ORDER BY time`,
		date)
}

// AppointmentsAtTime returns appointments whose time-of-day key
// matches, regardless of date.
func (db *DB) AppointmentsAtTime(ctx context.Context, tm string) ([]models.Appointment, error) {
	return db.listAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE time = ? ORDER BY `+dateKeySort,
		tm)
}

func (db *DB) listAppointments(ctx context.Context, query string, args ...any) ([]models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}
