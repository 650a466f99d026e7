package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"salonbot/internal/models"
)

const serviceColumns = `id, name, description, duration_minutes, price, photo_ref, is_active, created_at`

func scanService(row interface{ Scan(...any) error }) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes,
		&s.Price, &s.PhotoRef, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateService inserts a new catalog entry. A duplicate name fails.
func (db *DB) CreateService(ctx context.Context, s *models.Service) error {
	if s.DurationMinutes <= 0 {
		s.DurationMinutes = 60
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO services (name, description, duration_minutes, price, photo_ref, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)`,
		s.Name, s.Description, s.DurationMinutes, s.Price, s.PhotoRef, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	s.ID, _ = res.LastInsertId()
	s.IsActive = true
	return nil
}

// UpdateService overwrites the mutable attributes of a service.
func (db *DB) UpdateService(ctx context.Context, s *models.Service) error {
	res, err := db.ExecContext(ctx, `
		UPDATE services
		SET name = ?, description = ?, duration_minutes = ?, price = ?, photo_ref = ?, is_active = ?
		WHERE id = ?`,
		s.Name, s.Description, s.DurationMinutes, s.Price, s.PhotoRef, s.IsActive, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateService hides a service from the catalog. The row stays so
// historical slots and appointments keep resolving by name.
func (db *DB) DeactivateService(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE services SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate service: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetServiceByID returns a service regardless of its active flag.
func (db *DB) GetServiceByID(ctx context.Context, id int64) (*models.Service, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	s, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// GetServiceByName returns a service by its unique name.
func (db *DB) GetServiceByName(ctx context.Context, name string) (*models.Service, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE name = ?`, name)
	s, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// ListActiveServices returns active catalog entries ordered by name.
func (db *DB) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	return db.listServices(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE is_active = 1 ORDER BY name`)
}

// ListAllServices returns every catalog entry, including deactivated
// ones, for the operator screens.
func (db *DB) ListAllServices(ctx context.Context) ([]models.Service, error) {
	return db.listServices(ctx,
		`SELECT `+serviceColumns+` FROM services ORDER BY name`)
}

func (db *DB) listServices(ctx context.Context, query string) ([]models.Service, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *s)
	}
	return services, rows.Err()
}
