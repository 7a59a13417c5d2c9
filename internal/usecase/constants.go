package usecase

import "time"

const (
	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultHistoryCacheTTL bounds how long a completed event history stays cached
	DefaultHistoryCacheTTL = time.Hour

	historyCachePrefix = "gowallet:history:"
)
