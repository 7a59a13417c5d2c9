package usecase

//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks

import (
	"context"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations. Get returns ErrCacheMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not succeed so it can be retried.
	Release(ctx context.Context, key string) error
}

// Notifier hands a committed transfer to the broadcast layer. Implementations
// must not block on delivery.
type Notifier interface {
	Notify(ctx context.Context, notification domain.TransferCompleted)
}

// TokenIssuer signs access tokens for authenticated accounts.
type TokenIssuer interface {
	Generate(account *domain.Account) (string, error)
}

// TransferMetrics records transfer outcomes.
type TransferMetrics interface {
	TransferCompleted(commission domain.Money, duration time.Duration)
	TransferFailed(reason string, duration time.Duration)
}
