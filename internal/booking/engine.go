// Package booking implements the slot reservation engine: the single
// writer for slot and appointment state.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"salonbot/internal/database"
	"salonbot/internal/events"
	"salonbot/internal/metrics"
	"salonbot/internal/models"
)

// ErrTooLate is returned when a caller cancels inside the lead window.
var ErrTooLate = errors.New("too late to cancel")

// Storage-rule sentinels, re-exported so callers need not import the
// database package to match them.
var (
	ErrSlotConflict     = database.ErrSlotConflict
	ErrDuplicateBooking = database.ErrDuplicateBooking
	ErrCallerLimit      = database.ErrCallerLimit
	ErrNotFound         = database.ErrNotFound
	ErrSlotBooked       = database.ErrSlotBooked
)

// Rules hold the engine's business policy.
type Rules struct {
	MaxActivePerUser int
	CancelLead       time.Duration
}

// Engine owns the authoritative slot and appointment state.
type Engine struct {
	db     *database.DB
	rules  Rules
	loc    *time.Location
	bus    *events.Bus
	logger zerolog.Logger

	// mu serializes the check-then-flip of Reserve (and the symmetric
	// paths of Cancel and Move) across concurrent handlers. The UNIQUE
	// indexes and the is_booked guard in the UPDATE are the storage
	// backstop.
	mu sync.Mutex
}

// New creates an engine over the store.
func New(db *database.DB, rules Rules, bus *events.Bus, logger zerolog.Logger) *Engine {
	if rules.MaxActivePerUser <= 0 {
		rules.MaxActivePerUser = 3
	}
	if rules.CancelLead <= 0 {
		rules.CancelLead = 2 * time.Hour
	}
	return &Engine{
		db:     db,
		rules:  rules,
		loc:    time.Local,
		bus:    bus,
		logger: logger.With().Str("component", "booking").Logger(),
	}
}

// AvailableDates returns dates with at least one free slot for the
// service, ascending.
func (e *Engine) AvailableDates(ctx context.Context, service string) ([]string, error) {
	return e.db.AvailableDates(ctx, service)
}

// AvailableTimes returns free times for a date and service, ascending.
func (e *Engine) AvailableTimes(ctx context.Context, date, service string) ([]string, error) {
	return e.db.AvailableTimes(ctx, date, service)
}

// ReserveRequest carries the collected booking data.
type ReserveRequest struct {
	CallerID    int64
	ServiceName string
	Date        string
	Time        string
	FullName    string
	HasAllergy  bool
	Phone       string
}

// Reserve books the slot for the caller. Failure order: duplicate
// booking, caller cap, slot conflict. A malformed date or time key
// matches no slot row and therefore fails with ErrSlotConflict.
func (e *Engine) Reserve(ctx context.Context, req ReserveRequest) (*models.Appointment, error) {
	appt := &models.Appointment{
		CallerID:    req.CallerID,
		ServiceName: req.ServiceName,
		Date:        req.Date,
		Time:        req.Time,
		FullName:    req.FullName,
		HasAllergy:  req.HasAllergy,
		Phone:       req.Phone,
	}

	e.mu.Lock()
	err := e.db.ReserveAppointment(ctx, appt, e.rules.MaxActivePerUser)
	e.mu.Unlock()

	if err != nil {
		metrics.IncAppointmentCreated(reserveResult(err))
		return nil, err
	}

	metrics.IncAppointmentCreated("ok")
	e.logger.Info().
		Int64("appointment_id", appt.ID).
		Int64("caller_id", appt.CallerID).
		Str("service", appt.ServiceName).
		Str("date", appt.Date).
		Str("time", appt.Time).
		Msg("appointment created")

	if e.bus != nil {
		e.bus.Publish(events.Event{Type: events.TypeBookingCreated, Appointment: *appt})
	}
	return appt, nil
}

func reserveResult(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateBooking):
		return "duplicate"
	case errors.Is(err, ErrCallerLimit):
		return "caller_limit"
	case errors.Is(err, ErrSlotConflict):
		return "slot_conflict"
	default:
		return "error"
	}
}

// Cancel deletes an appointment and frees its slot. Non-operator
// cancellations inside the lead window fail with ErrTooLate. An
// appointment whose stored datetime does not parse counts as inside the
// window, so only the operator can remove it.
func (e *Engine) Cancel(ctx context.Context, id int64, now time.Time, asOperator bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	appt, err := e.db.GetAppointment(ctx, id)
	if err != nil {
		return err
	}

	if !asOperator {
		startsAt, err := appt.StartsAt(e.loc)
		if err != nil || startsAt.Sub(now) < e.rules.CancelLead {
			return ErrTooLate
		}
	}

	removed, err := e.db.RemoveAppointment(ctx, id)
	if err != nil {
		return err
	}

	metrics.IncAppointmentCancelled()
	e.logger.Info().
		Int64("appointment_id", id).
		Int64("caller_id", removed.CallerID).
		Bool("by_operator", asOperator).
		Msg("appointment cancelled")

	if e.bus != nil {
		e.bus.Publish(events.Event{
			Type:        events.TypeBookingCancelled,
			Appointment: *removed,
			ByOperator:  asOperator,
		})
	}
	return nil
}

// Move rebooks an appointment under a new (date, time) key, keeping
// the caller's identity and details. Operator-only; the cancellation
// lead-time policy is not re-checked.
func (e *Engine) Move(ctx context.Context, id int64, newDate, newTime string) (*models.Appointment, error) {
	e.mu.Lock()
	appt, err := e.db.MoveAppointment(ctx, id, newDate, newTime)
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Int64("appointment_id", id).
		Str("new_date", newDate).
		Str("new_time", newTime).
		Msg("appointment moved")

	if e.bus != nil {
		e.bus.Publish(events.Event{Type: events.TypeBookingMoved, Appointment: *appt, ByOperator: true})
	}
	return appt, nil
}

// AddSlot inserts a slot row; duplicates are a no-op. The service must
// exist in the catalog (ErrNotFound otherwise).
func (e *Engine) AddSlot(ctx context.Context, date, tm, service string) error {
	if _, err := e.db.GetServiceByName(ctx, service); err != nil {
		return err
	}
	return e.db.AddSlot(ctx, date, tm, service)
}

// RemoveSlot deletes a free slot. A booked slot cannot be removed
// (ErrSlotBooked): cancel its appointment first.
func (e *Engine) RemoveSlot(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.DeleteSlot(ctx, id)
}

// Slots lists the whole inventory.
func (e *Engine) Slots(ctx context.Context) ([]models.Slot, error) {
	return e.db.ListSlots(ctx)
}

// Appointments lists every confirmed booking.
func (e *Engine) Appointments(ctx context.Context) ([]models.Appointment, error) {
	return e.db.ListAppointments(ctx)
}

// CallerAppointments lists one caller's bookings.
func (e *Engine) CallerAppointments(ctx context.Context, callerID int64) ([]models.Appointment, error) {
	return e.db.ListAppointmentsByCaller(ctx, callerID)
}

// Reminder classes.
const (
	KindDayAhead  = "day_ahead"
	KindHourAhead = "hour_ahead"
)

// Due pairs an appointment with the reminder class it matched.
type Due struct {
	Appointment models.Appointment
	Kind        string
}

// AppointmentsDue returns appointments due for a reminder at now: the
// day-ahead class matches tomorrow's date, the hour-ahead class matches
// the time-of-day one hour from now, truncated to the minute. Matching
// is by key only, so an appointment can qualify in consecutive sweeps
// and delivery is at-least-once.
func (e *Engine) AppointmentsDue(ctx context.Context, now time.Time) ([]Due, error) {
	tomorrow := now.Add(24 * time.Hour)
	soon := now.Add(time.Hour)

	var due []Due

	dayAhead, err := e.db.AppointmentsOnDate(ctx, models.FormatDate(tomorrow))
	if err != nil {
		return nil, fmt.Errorf("day-ahead query: %w", err)
	}
	for _, a := range dayAhead {
		due = append(due, Due{Appointment: a, Kind: KindDayAhead})
	}

	hourAhead, err := e.db.AppointmentsAtTime(ctx, models.FormatTime(soon))
	if err != nil {
		return nil, fmt.Errorf("hour-ahead query: %w", err)
	}
	for _, a := range hourAhead {
		due = append(due, Due{Appointment: a, Kind: KindHourAhead})
	}

	return due, nil
}
