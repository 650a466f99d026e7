package booking

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbot/internal/database"
	"salonbot/internal/events"
)

func newTestEngine(t *testing.T, rules Rules) *Engine {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, rules, events.NewBus(), logger)
}

func reserveReq(callerID int64, date, tm string) ReserveRequest {
	return ReserveRequest{
		CallerID:    callerID,
		ServiceName: "Маникюр",
		Date:        date,
		Time:        tm,
		FullName:    "Анна Петрова",
		Phone:       "+7 (999) 123-45-67",
	}
}

func TestReserveRoundTrip(t *testing.T) {
	e := newTestEngine(t, Rules{})
	ctx := context.Background()

	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))

	dates, err := e.AvailableDates(ctx, "Маникюр")
	require.NoError(t, err)
	assert.Equal(t, []string{"15.06.2025"}, dates)

	appt, err := e.Reserve(ctx, reserveReq(42, "15.06.2025", "10:00"))
	require.NoError(t, err)
	assert.NotZero(t, appt.ID)
	assert.Equal(t, int64(42), appt.CallerID)

	// The slot is gone from availability.
	dates, err = e.AvailableDates(ctx, "Маникюр")
	require.NoError(t, err)
	assert.Empty(t, dates)

	mine, err := e.CallerAppointments(ctx, 42)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Маникюр", mine[0].ServiceName)
}

func TestAvailableDatesCrossMonth(t *testing.T) {
	e := newTestEngine(t, Rules{})
	ctx := context.Background()

	// "01.07.2025" sorts before "15.06.2025" as text; the listing must
	// still come back in calendar order.
	require.NoError(t, e.AddSlot(ctx, "01.07.2025", "10:00", "Маникюр"))
	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))

	dates, err := e.AvailableDates(ctx, "Маникюр")
	require.NoError(t, err)
	assert.Equal(t, []string{"15.06.2025", "01.07.2025"}, dates)
}

func TestReserveSlotConflict(t *testing.T) {
	e := newTestEngine(t, Rules{})
	ctx := context.Background()

	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))

	_, err := e.Reserve(ctx, reserveReq(42, "15.06.2025", "10:00"))
	require.NoError(t, err)

	_, err = e.Reserve(ctx, reserveReq(43, "15.06.2025", "10:00"))
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestReserveMissingSlot(t *testing.T) {
	e := newTestEngine(t, Rules{})

	_, err := e.Reserve(context.Background(), reserveReq(42, "15.06.2025", "10:00"))
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestReserveDuplicate(t *testing.T) {
	e := newTestEngine(t, Rules{})
	ctx := context.Background()

	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))
	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Педикюр"))

	_, err := e.Reserve(ctx, reserveReq(42, "15.06.2025", "10:00"))
	require.NoError(t, err)

	// Same caller, same (date, time), different service.
	req := reserveReq(42, "15.06.2025", "10:00")
	req.ServiceName = "Педикюр"
	_, err = e.Reserve(ctx, req)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestReserveCallerLimit(t *testing.T) {
	e := newTestEngine(t, Rules{MaxActivePerUser: 3})
	ctx := context.Background()

	times := []string{"10:00", "11:00", "12:00", "13:00"}
	for _, tm := range times {
		require.NoError(t, e.AddSlot(ctx, "15.06.2025", tm, "Маникюр"))
	}

	for _, tm := range times[:3] {
		_, err := e.Reserve(ctx, reserveReq(42, "15.06.2025", tm))
		require.NoError(t, err)
	}

	_, err := e.Reserve(ctx, reserveReq(42, "15.06.2025", "13:00"))
	assert.ErrorIs(t, err, ErrCallerLimit)

	// Another caller still gets the slot.
	_, err = e.Reserve(ctx, reserveReq(43, "15.06.2025", "13:00"))
	assert.NoError(t, err)
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	e := newTestEngine(t, Rules{MaxActivePerUser: 100})
	ctx := context.Background()

	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))

	const callers = 10
	var wg sync.WaitGroup
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(callerID int64) {
			defer wg.Done()
			_, err := e.Reserve(ctx, reserveReq(callerID, "15.06.2025", "10:00"))
			results <- err
		}(int64(100 + i))
	}
	wg.Wait()
	close(results)

	won, lost := 0, 0
	for err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrSlotConflict)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, callers-1, lost)
}

func TestCancelLeadWindow(t *testing.T) {
	e := newTestEngine(t, Rules{CancelLead: 2 * time.Hour})
	ctx := context.Background()

	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))
	appt, err := e.Reserve(ctx, reserveReq(42, "15.06.2025", "10:00"))
	require.NoError(t, err)

	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local)

	// 1h59m before the visit is inside the window.
	err = e.Cancel(ctx, appt.ID, start.Add(-119*time.Minute), false)
	assert.ErrorIs(t, err, ErrTooLate)

	// Exactly 2h before is allowed.
	err = e.Cancel(ctx, appt.ID, start.Add(-2*time.Hour), false)
	assert.NoError(t, err)

	// The slot is free again and can be rebooked.
	dates, err := e.AvailableDates(ctx, "Маникюр")
	require.NoError(t, err)
	assert.Equal(t, []string{"15.06.2025"}, dates)

	_, err = e.Reserve(ctx, reserveReq(43, "15.06.2025", "10:00"))
	assert.NoError(t, err)
}

func TestCancelOperatorOverride(t *testing.T) {
	e := newTestEngine(t, Rules{CancelLead: 2 * time.Hour})
	ctx := context.Background()

	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))
	appt, err := e.Reserve(ctx, reserveReq(42, "15.06.2025", "10:00"))
	require.NoError(t, err)

	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local)
	err = e.Cancel(ctx, appt.ID, start.Add(-5*time.Minute), true)
	assert.NoError(t, err)
}

func TestCancelMissing(t *testing.T) {
	e := newTestEngine(t, Rules{})

	err := e.Cancel(context.Background(), 999, time.Now(), true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMove(t *testing.T) {
	e := newTestEngine(t, Rules{})
	ctx := context.Background()

	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))
	require.NoError(t, e.AddSlot(ctx, "16.06.2025", "11:00", "Маникюр"))

	appt, err := e.Reserve(ctx, reserveReq(42, "15.06.2025", "10:00"))
	require.NoError(t, err)

	moved, err := e.Move(ctx, appt.ID, "16.06.2025", "11:00")
	require.NoError(t, err)
	assert.Equal(t, "16.06.2025", moved.Date)
	assert.Equal(t, "11:00", moved.Time)
	assert.Equal(t, int64(42), moved.CallerID)

	// The old slot is released.
	dates, err := e.AvailableDates(ctx, "Маникюр")
	require.NoError(t, err)
	assert.Equal(t, []string{"15.06.2025"}, dates)

	// No free slot exists at the requested key.
	_, err = e.Move(ctx, appt.ID, "20.06.2025", "12:00")
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestRemoveSlot(t *testing.T) {
	e := newTestEngine(t, Rules{})
	ctx := context.Background()

	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))
	// Re-adding the same slot is a no-op.
	require.NoError(t, e.AddSlot(ctx, "15.06.2025", "10:00", "Маникюр"))

	slots, err := e.Slots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	_, err = e.Reserve(ctx, reserveReq(42, "15.06.2025", "10:00"))
	require.NoError(t, err)

	// A booked slot cannot be removed.
	err = e.RemoveSlot(ctx, slots[0].ID)
	assert.ErrorIs(t, err, ErrSlotBooked)

	appts, err := e.CallerAppointments(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, e.Cancel(ctx, appts[0].ID, time.Now(), true))
	assert.NoError(t, e.RemoveSlot(ctx, slots[0].ID))

	err = e.RemoveSlot(ctx, slots[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppointmentsDue(t *testing.T) {
	e := newTestEngine(t, Rules{})
	ctx := context.Background()

	book := func(callerID int64, date, tm string) {
		t.Helper()
		require.NoError(t, e.AddSlot(ctx, date, tm, "Маникюр"))
		_, err := e.Reserve(ctx, reserveReq(callerID, date, tm))
		require.NoError(t, err)
	}

	book(1, "16.06.2025", "14:00") // tomorrow: day-ahead
	book(2, "15.06.2025", "10:00") // today in one hour: hour-ahead
	book(3, "17.06.2025", "10:00") // time-of-day match on a later date: still hour-ahead
	book(4, "15.06.2025", "18:00") // matches nothing

	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)
	due, err := e.AppointmentsDue(ctx, now)
	require.NoError(t, err)

	kinds := map[int64]string{}
	for _, d := range due {
		kinds[d.Appointment.CallerID] = d.Kind
	}
	assert.Equal(t, KindDayAhead, kinds[1])
	assert.Equal(t, KindHourAhead, kinds[2])
	assert.Equal(t, KindHourAhead, kinds[3])
	assert.NotContains(t, kinds, int64(4))
	assert.Len(t, due, 3)
}
