package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// AfterCommit collects callbacks that run once, only after a successful commit.
type AfterCommit struct {
	hooks []func(ctx context.Context)
}

// Register queues fn. Hooks run in registration order.
func (a *AfterCommit) Register(fn func(ctx context.Context)) {
	a.hooks = append(a.hooks, fn)
}

// Len reports how many hooks are queued.
func (a *AfterCommit) Len() int {
	return len(a.hooks)
}

func (a *AfterCommit) run(ctx context.Context, logger zerolog.Logger) {
	hooks := a.hooks
	a.hooks = nil

	for i, hook := range hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().Interface("panic", r).Int("hook", i).Msg("after-commit hook panicked")
				}
			}()
			hook(ctx)
		}()
	}
}

// UnitOfWork runs a function inside one database transaction.
type UnitOfWork struct {
	txManager TransactionManager
	logger    zerolog.Logger
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(txManager TransactionManager, logger zerolog.Logger) *UnitOfWork {
	return &UnitOfWork{
		txManager: txManager,
		logger:    logger,
	}
}

// Do begins a transaction, runs fn, and commits only if fn returns nil. Any error
// from fn or from commit rolls everything back and is returned unchanged (commit
// errors are wrapped). Hooks registered by fn run after the commit, detached from
// ctx cancellation, and can never change the returned error.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx Transaction, hooks *AfterCommit) error) error {
	tx, err := u.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hooks := &AfterCommit{}

	if err := fn(ctx, tx, hooks); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	hooks.run(context.WithoutCancel(ctx), u.logger)

	return nil
}
