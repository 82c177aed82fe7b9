package app

import (
	"context"
	"time"

	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/domain/repository"
	"github.com/polkiloo/creditledger/internal/usecase"
)

// CreditFacade runs use cases inside storage transactions for the transport and worker layers.
type CreditFacade struct {
	auth     *usecase.AuthUseCase
	ledger   *usecase.LedgerService
	spend    *usecase.SpendService
	grants   *usecase.AdminGrantUseCase
	tx       repository.Transactor
	accounts repository.AccountLister
	health   repository.HealthChecker
}

func NewCreditFacade(
	auth *usecase.AuthUseCase,
	ledger *usecase.LedgerService,
	spend *usecase.SpendService,
	grants *usecase.AdminGrantUseCase,
	tx repository.Transactor,
	accounts repository.AccountLister,
	health repository.HealthChecker,
) *CreditFacade {
	return &CreditFacade{
		auth:     auth,
		ledger:   ledger,
		spend:    spend,
		grants:   grants,
		tx:       tx,
		accounts: accounts,
		health:   health,
	}
}

func (f *CreditFacade) Register(ctx context.Context, login, password, adminSecret string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password, adminSecret)
	return token, err
}

func (f *CreditFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *CreditFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *CreditFacade) UserRole(ctx context.Context, userID int64) (model.Role, error) {
	return f.auth.UserRole(ctx, userID)
}

func (f *CreditFacade) Balance(ctx context.Context, userID int64) (int64, error) {
	var amount int64
	err := f.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
		var err error
		amount, err = f.ledger.Balance(ctx, tx, userID)
		return err
	})
	return amount, err
}

func (f *CreditFacade) Entries(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := f.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
		var err error
		entries, err = f.ledger.Entries(ctx, tx, userID)
		return err
	})
	return entries, err
}

// Grant credits or claws back credit on behalf of an admin.
func (f *CreditFacade) Grant(ctx context.Context, req model.GrantRequest) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry
	err := f.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
		var err error
		entry, err = f.grants.Grant(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Spend applies available credit to an owed amount.
func (f *CreditFacade) Spend(ctx context.Context, userID, amountOwedCents int64) (model.SpendResult, error) {
	var result model.SpendResult
	err := f.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
		var err error
		result, err = f.spend.Spend(ctx, tx, userID, amountOwedCents)
		return err
	})
	if err != nil {
		return model.SpendResult{}, err
	}
	return result, nil
}

func (f *CreditFacade) AccountsForReconcile(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	return f.accounts.ListAccounts(ctx, afterID, limit)
}

func (f *CreditFacade) Reconcile(ctx context.Context, accountID int64, horizon time.Duration) (*model.Reconciliation, error) {
	var rec *model.Reconciliation
	err := f.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
		var err error
		rec, err = f.ledger.Reconcile(ctx, tx, accountID, horizon)
		return err
	})
	return rec, err
}

func (f *CreditFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
