package monitoring

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings written by checkout",
		},
		[]string{"coupon"},
	)

	issuanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_issuance_runs_total",
			Help: "Ticket issuance runs by outcome",
		},
		[]string{"outcome"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Per-seat issuance results",
		},
		[]string{"result"},
	)

	ticketNumberCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_number_collisions_total",
			Help: "Ticket number unique conflicts that forced a regeneration",
		},
	)

	attendanceMarks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_marks_total",
			Help: "Attendance transitions by status and source",
		},
		[]string{"status", "source"},
	)

	sweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_sweep_runs_total",
			Help: "Completed-event sweeps by outcome",
		},
		[]string{"outcome"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "attendance_sweep_duration_seconds",
			Help:    "Duration of completed-event sweeps",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	notificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notification intents handed to a transport",
		},
		[]string{"transport", "outcome"},
	)

	hubSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "change_hub_subscribers",
			Help: "Live change-feed subscriptions per topic",
		},
		[]string{"topic"},
	)

	hubDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_hub_dropped_total",
			Help: "Change hints dropped because a subscriber buffer was full",
		},
		[]string{"topic"},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)

	locksHeld = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "redis_locks_held",
			Help: "Redis locks currently held, by kind",
		},
		[]string{"kind"},
	)
)

func TrackBooking(couponApplied bool) {
	label := "none"
	if couponApplied {
		label = "applied"
	}
	bookingsCreated.WithLabelValues(label).Inc()
}

func TrackIssuanceRun(outcome string) {
	issuanceRuns.WithLabelValues(outcome).Inc()
}

func TrackTickets(result string, n int) {
	if n > 0 {
		ticketsIssued.WithLabelValues(result).Add(float64(n))
	}
}

func TrackTicketNumberCollision() {
	ticketNumberCollisions.Inc()
}

func TrackAttendance(status, source string) {
	attendanceMarks.WithLabelValues(status, source).Inc()
}

func TrackSweep(outcome string, duration time.Duration) {
	sweepRuns.WithLabelValues(outcome).Inc()
	sweepDuration.Observe(duration.Seconds())
}

func TrackNotification(transport, outcome string) {
	notificationsDispatched.WithLabelValues(transport, outcome).Inc()
}

func SetSubscribers(topic string, n int) {
	hubSubscribers.WithLabelValues(topic).Set(float64(n))
}

func TrackDroppedHint(topic string) {
	hubDropped.WithLabelValues(topic).Inc()
}

// Monitor samples gauges that no request path updates.
type Monitor struct {
	redis    *redis.Client
	interval time.Duration
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	return &Monitor{redis: redisClient, interval: 30 * time.Second}
}

// Run collects until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.collectLockMetrics(ctx)
			m.collectGoroutineMetrics()
		}
	}
}

func (m *Monitor) collectLockMetrics(ctx context.Context) {
	for kind, pattern := range map[string]string{
		"issuance": "lock:issuance:*",
		"sweep":    "lock:sweep",
	} {
		var count int
		iter := m.redis.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			count++
		}
		if err := iter.Err(); err != nil {
			slog.Warn("Failed to scan locks", "pattern", pattern, "error", err)
			continue
		}
		locksHeld.WithLabelValues(kind).Set(float64(count))
	}
}

func (m *Monitor) collectGoroutineMetrics() {
	goroutineCount.Set(float64(runtime.NumGoroutine()))
}
