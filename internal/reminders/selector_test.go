package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"salonbot/internal/booking"
	"salonbot/internal/models"
)

type fakeStore struct {
	due []booking.Due
	err error
	now time.Time
}

func (s *fakeStore) AppointmentsDue(_ context.Context, now time.Time) ([]booking.Due, error) {
	s.now = now
	return s.due, s.err
}

type sentReminder struct {
	callerID int64
	kind     string
}

type fakeNotifier struct {
	sent    []sentReminder
	failFor int64
}

func (n *fakeNotifier) Notify(_ context.Context, callerID int64, _ models.Appointment, kind string) error {
	if callerID == n.failFor {
		return errors.New("delivery failed")
	}
	n.sent = append(n.sent, sentReminder{callerID: callerID, kind: kind})
	return nil
}

func appt(callerID int64, date, tm string) models.Appointment {
	return models.Appointment{CallerID: callerID, ServiceName: "Маникюр", Date: date, Time: tm}
}

func TestRunSweepNotifiesEachMatch(t *testing.T) {
	store := &fakeStore{due: []booking.Due{
		{Appointment: appt(1, "16.06.2025", "14:00"), Kind: booking.KindDayAhead},
		{Appointment: appt(2, "15.06.2025", "10:00"), Kind: booking.KindHourAhead},
	}}
	notifier := &fakeNotifier{}
	s := New(store, notifier, DefaultConfig(), zerolog.Nop())

	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)
	s.RunSweep(context.Background(), now)

	assert.Equal(t, now, store.now)
	assert.Equal(t, []sentReminder{
		{callerID: 1, kind: booking.KindDayAhead},
		{callerID: 2, kind: booking.KindHourAhead},
	}, notifier.sent)
}

func TestRunSweepContinuesAfterDeliveryFailure(t *testing.T) {
	store := &fakeStore{due: []booking.Due{
		{Appointment: appt(1, "16.06.2025", "14:00"), Kind: booking.KindDayAhead},
		{Appointment: appt(2, "16.06.2025", "15:00"), Kind: booking.KindDayAhead},
		{Appointment: appt(3, "16.06.2025", "16:00"), Kind: booking.KindDayAhead},
	}}
	notifier := &fakeNotifier{failFor: 2}
	s := New(store, notifier, DefaultConfig(), zerolog.Nop())

	s.RunSweep(context.Background(), time.Now())

	assert.Equal(t, []sentReminder{
		{callerID: 1, kind: booking.KindDayAhead},
		{callerID: 3, kind: booking.KindDayAhead},
	}, notifier.sent)
}

func TestRunSweepQueryFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	notifier := &fakeNotifier{}
	s := New(store, notifier, DefaultConfig(), zerolog.Nop())

	s.RunSweep(context.Background(), time.Now())
	assert.Empty(t, notifier.sent)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	s := New(store, &fakeNotifier{}, Config{Interval: time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
