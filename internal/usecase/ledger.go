package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/polkiloo/creditledger/internal/domain/balance"
	domainErrors "github.com/polkiloo/creditledger/internal/domain/errors"
	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/domain/repository"
	"github.com/polkiloo/creditledger/internal/metrics"
)

// LedgerService appends entries while keeping every account balance non-negative.
type LedgerService struct {
	guard   *AccountGuard
	clock   Clock
	metrics *metrics.Metrics
}

// NewLedgerService constructs LedgerService.
func NewLedgerService(guard *AccountGuard, clock Clock, m *metrics.Metrics) *LedgerService {
	return &LedgerService{guard: guard, clock: clock, metrics: m}
}

// Append validates in, locks the account and writes the entry unless the
// resulting balance would be negative. On error nothing is written and the
// caller is expected to roll tx back.
func (s *LedgerService) Append(ctx context.Context, tx repository.Tx, in model.EntryInput) (*model.LedgerEntry, error) {
	if err := validateEntry(in); err != nil {
		s.metrics.ObserveAppend(string(in.Kind), appendResult(err))
		return nil, err
	}

	var stored *model.LedgerEntry
	err := s.guard.WithAccountLock(ctx, tx, in.AccountID, func() error {
		entries, err := tx.Ledger().ListForAccount(ctx, in.AccountID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		before := balance.Compute(entries, now)
		if before+in.DeltaCents < 0 {
			return &domainErrors.InsufficientCreditError{
				AccountID: in.AccountID,
				Requested: -in.DeltaCents,
				Available: before,
			}
		}

		entry := in.Entry()
		entry.CreatedAt = now
		stored, err = tx.Ledger().Append(ctx, entry)
		return err
	})

	s.metrics.ObserveAppend(string(in.Kind), appendResult(err))
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Balance returns the current balance without locking. The value is a snapshot.
func (s *LedgerService) Balance(ctx context.Context, tx repository.Tx, accountID int64) (int64, error) {
	entries, err := tx.Ledger().ListForAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return balance.Compute(entries, s.clock.Now()), nil
}

// Entries returns the account audit trail, newest first.
func (s *LedgerService) Entries(ctx context.Context, tx repository.Tx, accountID int64) ([]model.LedgerEntry, error) {
	entries, err := tx.Ledger().ListForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Reconcile reports the balance of accountID and the credit about to expire within horizon.
func (s *LedgerService) Reconcile(ctx context.Context, tx repository.Tx, accountID int64, horizon time.Duration) (*model.Reconciliation, error) {
	entries, err := tx.Ledger().ListForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	return &model.Reconciliation{
		AccountID:     accountID,
		BalanceCents:  balance.Compute(entries, now),
		ExpiringCents: balance.Expiring(entries, now, horizon),
		CheckedAt:     now,
	}, nil
}

func validateEntry(in model.EntryInput) error {
	switch {
	case in.AccountID <= 0:
		return &domainErrors.ValidationError{Field: "accountId", Message: "must be positive"}
	case !in.Kind.Valid():
		return &domainErrors.ValidationError{Field: "kind", Message: "unknown entry kind " + string(in.Kind)}
	case in.Kind.IsGrant() && in.DeltaCents < 0:
		return &domainErrors.ValidationError{Field: "deltaCents", Message: "grants must not be negative"}
	case !in.Kind.IsGrant() && in.DeltaCents > 0:
		return &domainErrors.ValidationError{Field: "deltaCents", Message: "debits must not be positive"}
	case !in.Kind.IsGrant() && in.ExpiresAt != nil:
		return &domainErrors.ValidationError{Field: "expiresAt", Message: "debits never expire"}
	case in.Kind == model.EntryKindGrantFinancing && (in.FinancingAccountID == nil || strings.TrimSpace(*in.FinancingAccountID) == ""):
		return &domainErrors.ValidationError{Field: "financingAccountId", Message: "required for financing grants"}
	}
	return nil
}

func appendResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domainErrors.ErrValidation):
		return "invalid"
	case errors.Is(err, domainErrors.ErrInsufficientCredit):
		return "insufficient"
	case errors.Is(err, domainErrors.ErrLockTimeout):
		return "timeout"
	default:
		return "error"
	}
}
