// Package broadcast delivers committed-transfer notifications to subscribers.
// Delivery is best-effort and never feeds back into the transfer that produced it.
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

// Publisher pushes one notification to an external system.
type Publisher interface {
	Publish(ctx context.Context, notification domain.TransferCompleted) error
	Driver() string
}

// Recorder receives delivery outcomes. metrics.Metrics implements it.
type Recorder interface {
	BroadcastPublished(driver string)
	BroadcastFailed(driver string)
	BroadcastDropped()
}

// Config for Dispatcher.
type Config struct {
	Publisher       Publisher
	Logger          zerolog.Logger
	Recorder        Recorder      // optional
	BufferSize      int           // queued notifications before Notify starts dropping
	MaxRetries      uint64        // retries after the first attempt
	InitialInterval time.Duration // first retry delay
	DrainTimeout    time.Duration // time allowed to flush the queue on shutdown
}

// Dispatcher queues notifications and publishes them from a single worker.
type Dispatcher struct {
	publisher Publisher
	logger    zerolog.Logger
	recorder  Recorder
	queue     chan domain.TransferCompleted

	maxRetries      uint64
	initialInterval time.Duration
	drainTimeout    time.Duration

	mu      sync.RWMutex
	stopped bool

	dropped   atomic.Uint64
	published atomic.Uint64
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = 5 * time.Second
	}

	return &Dispatcher{
		publisher:       cfg.Publisher,
		logger:          cfg.Logger.With().Str("component", "broadcast").Str("driver", cfg.Publisher.Driver()).Logger(),
		recorder:        cfg.Recorder,
		queue:           make(chan domain.TransferCompleted, cfg.BufferSize),
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		drainTimeout:    cfg.DrainTimeout,
	}
}

// Notify enqueues a notification without blocking. When the queue is full, or
// the worker has already stopped, the notification is dropped and counted.
func (d *Dispatcher) Notify(_ context.Context, notification domain.TransferCompleted) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.drop(notification, "broadcast dispatcher stopped, notification dropped")
		return
	}

	select {
	case d.queue <- notification:
	default:
		d.drop(notification, "broadcast queue full, notification dropped")
	}
}

func (d *Dispatcher) drop(n domain.TransferCompleted, msg string) {
	d.dropped.Add(1)
	if d.recorder != nil {
		d.recorder.BroadcastDropped()
	}
	d.logger.Warn().
		Str("notification_id", n.ID).
		Int64("transaction_id", n.TransactionID).
		Msg(msg)
}

// Start runs the delivery worker until ctx is cancelled, then flushes what is
// already queued within the drain timeout. Notifications arriving after that
// are dropped.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info().Int("buffer", cap(d.queue)).Msg("broadcast dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()

			d.drain()
			d.logger.Info().Msg("broadcast dispatcher stopped")
			return ctx.Err()
		case n := <-d.queue:
			d.deliver(ctx, n)
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), d.drainTimeout)
	defer cancel()

	for {
		select {
		case n := <-d.queue:
			d.deliver(ctx, n)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.TransferCompleted) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.initialInterval

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		return d.publisher.Publish(ctx, n)
	}, backoff.WithContext(backoff.WithMaxRetries(b, d.maxRetries), ctx))

	if err != nil {
		if d.recorder != nil {
			d.recorder.BroadcastFailed(d.publisher.Driver())
		}
		d.logger.Error().Err(err).
			Str("notification_id", n.ID).
			Int64("transaction_id", n.TransactionID).
			Int("attempts", attempt).
			Msg("broadcast delivery failed")
		return
	}

	if d.recorder != nil {
		d.recorder.BroadcastPublished(d.publisher.Driver())
	}
	d.published.Add(1)
	d.logger.Debug().
		Str("notification_id", n.ID).
		Int64("transaction_id", n.TransactionID).
		Int("attempts", attempt).
		Msg("broadcast delivered")
}

// Dropped returns how many notifications were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Published returns how many notifications were delivered.
func (d *Dispatcher) Published() uint64 {
	return d.published.Load()
}
