package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainErrors "github.com/polkiloo/creditledger/internal/domain/errors"
	"github.com/polkiloo/creditledger/internal/domain/repository"
	"github.com/polkiloo/creditledger/internal/metrics"
)

// AccountGuard serializes mutations of a single credit account.
type AccountGuard struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAccountGuard constructs AccountGuard.
func NewAccountGuard(m *metrics.Metrics, logger *slog.Logger) *AccountGuard {
	return &AccountGuard{metrics: m, logger: logger}
}

// WithAccountLock runs fn while tx holds the lock of accountID.
// The lock is released when tx commits or rolls back, not when fn returns.
func (g *AccountGuard) WithAccountLock(ctx context.Context, tx repository.Tx, accountID int64, fn func() error) error {
	started := time.Now()
	err := tx.Locks().LockAccount(ctx, accountID)
	g.metrics.ObserveLockWait(time.Since(started))
	if err != nil {
		if errors.Is(err, domainErrors.ErrLockTimeout) && g.logger != nil {
			g.logger.Warn("credit account lock timeout",
				slog.Int64("account_id", accountID),
				slog.Duration("waited", time.Since(started)),
			)
		}
		return err
	}
	return fn()
}
