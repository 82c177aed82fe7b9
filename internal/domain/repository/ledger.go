package repository

import (
	"context"

	"github.com/polkiloo/creditledger/internal/domain/model"
)

// LedgerRepository is append-only storage of credit entries scoped to one transaction.
type LedgerRepository interface {
	Append(ctx context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error)
	ListForAccount(ctx context.Context, accountID int64) ([]model.LedgerEntry, error)
}

// AccountLocker takes exclusive per-account locks held until the transaction ends.
// Locking an account already held by the same transaction succeeds immediately.
type AccountLocker interface {
	LockAccount(ctx context.Context, accountID int64) error
}

// Tx is the unit of work threaded through every ledger operation.
type Tx interface {
	Ledger() LedgerRepository
	Locks() AccountLocker
}

// Transactor runs fn inside a transaction, committing on nil error and rolling back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// AccountLister pages through accounts that have ledger activity, ordered by id.
type AccountLister interface {
	ListAccounts(ctx context.Context, afterID int64, limit int) ([]int64, error)
}
