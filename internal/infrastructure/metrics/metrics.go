package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/gowallet/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCompleted  prometheus.Counter
	TransferFailures    *prometheus.CounterVec
	TransferDuration    *prometheus.HistogramVec
	CommissionCollected prometheus.Counter

	// Broadcast metrics
	BroadcastDelivered *prometheus.CounterVec
	BroadcastFailures  *prometheus.CounterVec
	BroadcastDrops     prometheus.Counter

	// API metrics
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	HTTPInFlight   prometheus.Gauge
	AuthAttempts   *prometheus.CounterVec
	RateLimitHits  prometheus.Counter
	IdempotentHits prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransfersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_transfers_completed_total",
			Help: "Total number of committed transfers",
		}),
		TransferFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_transfer_failures_total",
				Help: "Total number of rejected or aborted transfers by reason",
			},
			[]string{"reason"},
		),
		TransferDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_transfer_duration_seconds",
				Help:    "Duration of transfer operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		CommissionCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_commission_collected_total",
			Help: "Sum of commission collected on committed transfers",
		}),

		BroadcastDelivered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_broadcast_published_total",
				Help: "Notifications delivered to subscribers",
			},
			[]string{"driver"},
		),
		BroadcastFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_broadcast_failures_total",
				Help: "Notifications abandoned after retries",
			},
			[]string{"driver"},
		),
		BroadcastDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_broadcast_dropped_total",
			Help: "Notifications dropped because the dispatch queue was full",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gowallet_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_auth_attempts_total",
				Help: "Bearer token checks by outcome",
			},
			[]string{"status"},
		),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
		IdempotentHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_idempotent_replays_total",
			Help: "Responses served from the idempotency store",
		}),
	}
}

// TransferCompleted implements usecase.TransferMetrics.
func (m *Metrics) TransferCompleted(commission domain.Money, duration time.Duration) {
	m.TransfersCompleted.Inc()
	m.CommissionCollected.Add(commission.Float64())
	m.TransferDuration.WithLabelValues("completed").Observe(duration.Seconds())
}

// TransferFailed implements usecase.TransferMetrics.
func (m *Metrics) TransferFailed(reason string, duration time.Duration) {
	m.TransferFailures.WithLabelValues(reason).Inc()
	m.TransferDuration.WithLabelValues("failed").Observe(duration.Seconds())
}

// BroadcastPublished implements broadcast.Recorder.
func (m *Metrics) BroadcastPublished(driver string) {
	m.BroadcastDelivered.WithLabelValues(driver).Inc()
}

func (m *Metrics) BroadcastFailed(driver string) {
	m.BroadcastFailures.WithLabelValues(driver).Inc()
}

func (m *Metrics) BroadcastDropped() {
	m.BroadcastDrops.Inc()
}

// RequestStarted and RequestFinished implement the HTTP metrics middleware recorder.
func (m *Metrics) RequestStarted() {
	m.HTTPInFlight.Inc()
}

func (m *Metrics) RequestFinished(method, route string, status int, duration time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) AuthAttempt(status string) {
	m.AuthAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) RateLimited() {
	m.RateLimitHits.Inc()
}

func (m *Metrics) IdempotentReplay() {
	m.IdempotentHits.Inc()
}
