package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "diaglab"

var (
	once sync.Once

	lockOutcome = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_lock_outcome_total",
			Help:      "Slot lock attempts by resulting state.",
		},
		[]string{"state"},
	)

	bookingConfirm = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_confirm_total",
			Help:      "Booking confirmations by outcome.",
		},
		[]string{"outcome"},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_transition_total",
			Help:      "Booking status changes by target status.",
		},
		[]string{"status"},
	)

	sideEffectFailure = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failure_total",
			Help:      "Best-effort side effects that failed and were logged.",
		},
		[]string{"effect"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(lockOutcome, bookingConfirm, bookingTransition, sideEffectFailure)
	})
}

func IncLockOutcome(state string) {
	lockOutcome.WithLabelValues(state).Inc()
}

func IncBookingConfirm(outcome string) {
	bookingConfirm.WithLabelValues(outcome).Inc()
}

func IncBookingTransition(status string) {
	bookingTransition.WithLabelValues(status).Inc()
}

func IncSideEffectFailure(effect string) {
	sideEffectFailure.WithLabelValues(effect).Inc()
}
