// Package models defines the persistent records of the booking domain.
package models

import (
	"fmt"
	"time"
)

// Date and time keys are stored as text in the formats the salon works
// with: DD.MM.YYYY and HH:MM.
const (
	DateLayout = "02.01.2006"
	TimeLayout = "15:04"
)

// Service represents a catalog entry. Identity is the unique name;
// services are deactivated, never deleted, so historical appointments
// keep resolving.
type Service struct {
	ID              int64
	Name            string
	Description     string
	DurationMinutes int
	Price           float64
	PhotoRef        string
	IsActive        bool
	CreatedAt       time.Time
}

// Slot is a bookable (date, time, service) unit.
type Slot struct {
	ID          int64
	Date        string
	Time        string
	ServiceName string
	IsBooked    bool
}

// Appointment is a confirmed booking.
type Appointment struct {
	ID          int64
	CallerID    int64
	ServiceName string
	Date        string
	Time        string
	FullName    string
	HasAllergy  bool
	Phone       string
	CreatedAt   time.Time
}

// StartsAt combines the appointment's date and time keys into a wall
// clock instant in the given location.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse appointment datetime %q %q: %w", a.Date, a.Time, err)
	}
	return t, nil
}

// SlotKey returns the slot key the appointment occupies.
func (a *Appointment) SlotKey() (date, tm, service string) {
	return a.Date, a.Time, a.ServiceName
}

// FormatDate renders t as a date key.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatTime renders t as a time key, truncated to the minute.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
