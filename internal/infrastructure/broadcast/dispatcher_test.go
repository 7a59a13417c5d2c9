package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

type stubPublisher struct {
	mu        sync.Mutex
	failures  int
	attempts  int
	published []domain.TransferCompleted
	block     chan struct{}
}

func (p *stubPublisher) Driver() string { return "stub" }

func (p *stubPublisher) Publish(ctx context.Context, n domain.TransferCompleted) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.attempts++
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, n)
	return nil
}

func (p *stubPublisher) snapshot() (attempts int, published []domain.TransferCompleted) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts, append([]domain.TransferCompleted(nil), p.published...)
}

type countingRecorder struct {
	mu                         sync.Mutex
	published, failed, dropped int
}

func (r *countingRecorder) BroadcastPublished(string) { r.mu.Lock(); r.published++; r.mu.Unlock() }
func (r *countingRecorder) BroadcastFailed(string)    { r.mu.Lock(); r.failed++; r.mu.Unlock() }
func (r *countingRecorder) BroadcastDropped()         { r.mu.Lock(); r.dropped++; r.mu.Unlock() }

func notification(txID int64) domain.TransferCompleted {
	return domain.TransferCompleted{
		ID:            "n-1",
		TransactionID: txID,
		Amount:        domain.MustParseMoney("100"),
		Commission:    domain.MustParseMoney("1.5"),
		Status:        domain.TransactionStatusCompleted,
		SenderID:      5,
		ReceiverID:    9,
	}
}

func newTestDispatcher(pub Publisher, rec Recorder, buffer int) *Dispatcher {
	return NewDispatcher(Config{
		Publisher:       pub,
		Logger:          zerolog.Nop(),
		Recorder:        rec,
		BufferSize:      buffer,
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		DrainTimeout:    time.Second,
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDispatcherRetriesUntilDelivered(t *testing.T) {
	pub := &stubPublisher{failures: 2}
	rec := &countingRecorder{}
	d := newTestDispatcher(pub, rec, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	d.Notify(context.Background(), notification(1))

	waitFor(t, func() bool { return d.Published() == 1 })

	attempts, published := pub.snapshot()
	if attempts != 3 || len(published) != 1 || published[0].TransactionID != 1 {
		t.Fatalf("expected delivery on the third attempt, attempts=%d published=%v", attempts, published)
	}
	if rec.published != 1 || rec.failed != 0 {
		t.Fatalf("unexpected recorder counts %+v", rec)
	}
}

func TestDispatcherGivesUpAfterMaxRetries(t *testing.T) {
	pub := &stubPublisher{failures: 100}
	rec := &countingRecorder{}
	d := newTestDispatcher(pub, rec, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	d.Notify(context.Background(), notification(1))

	waitFor(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.failed == 1
	})

	if attempts, _ := pub.snapshot(); attempts != 4 {
		t.Fatalf("expected 1 attempt plus 3 retries, got %d", attempts)
	}
}

func TestDispatcherNotifyNeverBlocks(t *testing.T) {
	pub := &stubPublisher{block: make(chan struct{})}
	rec := &countingRecorder{}
	d := newTestDispatcher(pub, rec, 2)

	// no worker running: the third and fourth notifications overflow the queue
	done := make(chan struct{})
	go func() {
		for i := int64(1); i <= 4; i++ {
			d.Notify(context.Background(), notification(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	if d.Dropped() != 2 || rec.dropped != 2 {
		t.Fatalf("expected 2 drops, got %d (recorder %d)", d.Dropped(), rec.dropped)
	}
	close(pub.block)
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	pub := &stubPublisher{}
	d := newTestDispatcher(pub, nil, 8)

	for i := int64(1); i <= 3; i++ {
		d.Notify(context.Background(), notification(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}

	if _, published := pub.snapshot(); len(published) != 3 {
		t.Fatalf("expected queued notifications to be flushed, got %d", len(published))
	}
}

func TestDispatcherCountsNotificationsAfterStop(t *testing.T) {
	pub := &stubPublisher{}
	rec := &countingRecorder{}
	d := newTestDispatcher(pub, rec, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}

	d.Notify(context.Background(), notification(42))

	if d.Dropped() != 1 || rec.dropped != 1 {
		t.Fatalf("expected late notification to be dropped, got %d (recorder %d)", d.Dropped(), rec.dropped)
	}
	if len(d.queue) != 0 {
		t.Fatalf("expected nothing queued after stop, got %d", len(d.queue))
	}
	if _, published := pub.snapshot(); len(published) != 0 {
		t.Fatalf("expected no delivery after stop, got %d", len(published))
	}
}
