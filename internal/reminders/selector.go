// Package reminders periodically selects appointments due for a
// day-ahead or hour-ahead notice and hands them to delivery.
package reminders

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"salonbot/internal/booking"
	"salonbot/internal/metrics"
	"salonbot/internal/models"
)

// Store is the slice of the reservation engine the selector reads.
type Store interface {
	AppointmentsDue(ctx context.Context, now time.Time) ([]booking.Due, error)
}

// Notifier delivers a reminder to the caller.
type Notifier interface {
	Notify(ctx context.Context, callerID int64, appt models.Appointment, kind string) error
}

// Config holds the selector settings.
type Config struct {
	Interval  time.Duration
	SendRate  float64 // notifications per second handed to delivery
	SendBurst int
}

// DefaultConfig returns the default sweep settings.
func DefaultConfig() Config {
	return Config{
		Interval:  30 * time.Minute,
		SendRate:  20,
		SendBurst: 30,
	}
}

// Selector runs the reminder sweeps.
type Selector struct {
	store    Store
	notifier Notifier
	limiter  *rate.Limiter
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a selector.
func New(store Store, notifier Notifier, cfg Config, logger zerolog.Logger) *Selector {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = 20
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 30
	}
	return &Selector{
		store:    store,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		interval: cfg.Interval,
		logger:   logger.With().Str("component", "reminders").Logger(),
	}
}

// Run executes sweeps on the configured interval until the context is
// cancelled.
func (s *Selector) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("reminder selector started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder selector stopped")
			return
		case <-ticker.C:
			s.RunSweep(ctx, time.Now())
		}
	}
}

// RunSweep selects appointments due at now and hands each to the
// notifier once. There is no de-duplication across sweeps: an
// appointment whose key matches two consecutive sweeps is notified
// twice (at-least-once delivery).
func (s *Selector) RunSweep(ctx context.Context, now time.Time) {
	start := time.Now()

	due, err := s.store.AppointmentsDue(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("due appointment query failed")
		return
	}

	sent, failed := 0, 0
	for _, d := range due {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Info().Int("sent", sent).Int("remaining", len(due)-sent-failed).
				Msg("reminder sweep interrupted")
			return
		}
		if err := s.notifier.Notify(ctx, d.Appointment.CallerID, d.Appointment, d.Kind); err != nil {
			failed++
			s.logger.Error().Err(err).
				Int64("caller_id", d.Appointment.CallerID).
				Int64("appointment_id", d.Appointment.ID).
				Str("kind", d.Kind).
				Msg("reminder delivery failed")
			continue
		}
		sent++
		metrics.IncReminderSent(d.Kind)
	}

	if len(due) > 0 {
		s.logger.Info().
			Int("total", len(due)).
			Int("sent", sent).
			Int("failed", failed).
			Dur("duration", time.Since(start)).
			Msg("reminder sweep completed")
	}
}
