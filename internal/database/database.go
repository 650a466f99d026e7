// Package database provides the sqlite-backed store for services,
// slots and appointments.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// Business-rule rejections detected at the storage boundary. Callers
// match them with errors.Is.
var (
	ErrSlotConflict     = errors.New("slot is missing or already booked")
	ErrDuplicateBooking = errors.New("caller already booked this date and time")
	ErrCallerLimit      = errors.New("caller active appointment limit reached")
	ErrNotFound         = errors.New("not found")
	ErrSlotBooked       = errors.New("slot is booked")
)

// dateKeySort reorders DD.MM.YYYY text keys as YYYYMMDD so ORDER BY is
// chronological, not lexicographic.
const dateKeySort = `substr(date, 7, 4) || substr(date, 4, 2) || substr(date, 1, 2)`

// DB wraps the sql connection pool.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// NewDB opens (and if necessary creates) the database at path.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}
	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := instance.seedDefaultServices(context.Background()); err != nil {
		logger.Error().Err(err).Msg("failed to seed default services")
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS services (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			duration_minutes INTEGER NOT NULL DEFAULT 60,
			price REAL NOT NULL DEFAULT 0,
			photo_ref TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS slots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			service_name TEXT NOT NULL,
			is_booked BOOLEAN NOT NULL DEFAULT 0,
			UNIQUE(date, time, service_name)
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			caller_id INTEGER NOT NULL,
			service_name TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			full_name TEXT NOT NULL,
			allergy_flag BOOLEAN NOT NULL DEFAULT 0,
			phone TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(caller_id, date, time)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_slots_service_date ON slots(service_name, date)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_date_service ON slots(date, service_name)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_time ON appointments(time)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_caller ON appointments(caller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_services_active ON services(is_active)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// seedDefaultServices installs the base catalog on first start.
func (db *DB) seedDefaultServices(ctx context.Context) error {
	defaults := []struct {
		name        string
		description string
		duration    int
		price       float64
	}{
		{"Маникюр", "Классический маникюр", 60, 1500},
		{"Педикюр", "Классический педикюр", 90, 2000},
		{"Массаж лица", "Омолаживающий массаж лица", 45, 2500},
		{"Чистка лица", "Глубокая чистка лица", 60, 3000},
		{"Макияж", "Вечерний макияж", 90, 3500},
	}

	for _, s := range defaults {
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO services (name, description, duration_minutes, price, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			s.name, s.description, s.duration, s.price, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("seed service %s: %w", s.name, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
