package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salonbot",
			Name:      "appointment_created_total",
			Help:      "Count of reservation attempts by result.",
		},
		[]string{"result"},
	)

	appointmentCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salonbot",
			Name:      "appointment_cancelled_total",
			Help:      "Count of cancelled appointments.",
		},
	)

	floodBlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salonbot",
			Name:      "floodguard_blocked_total",
			Help:      "Count of callers blocked by the flood guard.",
		},
	)

	reminderSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salonbot",
			Name:      "reminder_sent_total",
			Help:      "Count of reminders handed to delivery by class.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(appointmentCreated, appointmentCancelled, floodBlocked, reminderSent)
	})
}

func IncAppointmentCreated(result string) {
	appointmentCreated.WithLabelValues(result).Inc()
}

func IncAppointmentCancelled() {
	appointmentCancelled.Inc()
}

func IncFloodBlocked() {
	floodBlocked.Inc()
}

func IncReminderSent(kind string) {
	reminderSent.WithLabelValues(kind).Inc()
}
