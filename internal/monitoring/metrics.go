package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total bookings placed (pending soft holds)",
		},
	)

	bookingStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_status_changes_total",
			Help: "Booking lifecycle transitions by target status",
		},
		[]string{"status"},
	)

	paymentsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Successful payment reconciliations",
		},
	)

	capacityRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capacity_rejections_total",
			Help: "Settlements rejected because the ticket pool was drained",
		},
	)

	bookingsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_expired_total",
			Help: "Pending bookings expired by the sweeper",
		},
	)
)

func BookingCreated() { bookingsCreated.Inc() }

func BookingStatusChanged(status string) { bookingStatusChanges.WithLabelValues(status).Inc() }

func PaymentRecorded() { paymentsRecorded.Inc() }

func CapacityRejected() { capacityRejections.Inc() }

func BookingsExpired(n int64) { bookingsExpired.Add(float64(n)) }
