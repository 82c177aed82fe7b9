package test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/polkiloo/creditledger/internal/domain/model"
)

// CreditFacadeStub provides controllable behaviour for credit endpoints.
type CreditFacadeStub struct {
	BalanceFn      func(context.Context, int64) (int64, error)
	EntriesFn      func(context.Context, int64) ([]model.LedgerEntry, error)
	GrantFn        func(context.Context, model.GrantRequest) (*model.LedgerEntry, error)
	SpendFn        func(context.Context, int64, int64) (model.SpendResult, error)
	UserRoleFn     func(context.Context, int64) (model.Role, error)
	HealthCheckFn  func(context.Context) error
	Grants         []model.GrantRequest
	DefaultBalance int64
}

// Balance returns configured balance.
func (s *CreditFacadeStub) Balance(ctx context.Context, userID int64) (int64, error) {
	if s.BalanceFn != nil {
		return s.BalanceFn(ctx, userID)
	}
	return s.DefaultBalance, nil
}

// Entries returns configured audit trail.
func (s *CreditFacadeStub) Entries(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	if s.EntriesFn != nil {
		return s.EntriesFn(ctx, userID)
	}
	return nil, nil
}

// Grant records the request and echoes it back as an entry.
func (s *CreditFacadeStub) Grant(ctx context.Context, req model.GrantRequest) (*model.LedgerEntry, error) {
	s.Grants = append(s.Grants, req)
	if s.GrantFn != nil {
		return s.GrantFn(ctx, req)
	}
	kind := model.EntryKindGrantManual
	if req.AmountCents < 0 {
		kind = model.EntryKindDebit
	}
	return &model.LedgerEntry{
		AccountID:   req.AccountID,
		Kind:        kind,
		DeltaCents:  req.AmountCents,
		CreatedBy:   req.CreatedBy,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
		CreatedAt:   time.Unix(0, 0).UTC(),
	}, nil
}

// Spend returns configured split or pays everything in cash.
func (s *CreditFacadeStub) Spend(ctx context.Context, userID, owed int64) (model.SpendResult, error) {
	if s.SpendFn != nil {
		return s.SpendFn(ctx, userID, owed)
	}
	return model.SpendResult{NonCreditPaymentCents: owed}, nil
}

// UserRole returns configured role, USER by default.
func (s *CreditFacadeStub) UserRole(ctx context.Context, userID int64) (model.Role, error) {
	if s.UserRoleFn != nil {
		return s.UserRoleFn(ctx, userID)
	}
	return model.RoleUser, nil
}

// HealthCheck returns configured health.
func (s *CreditFacadeStub) HealthCheck(ctx context.Context) error {
	if s.HealthCheckFn != nil {
		return s.HealthCheckFn(ctx)
	}
	return nil
}

// CreditAppFacadeStub aggregates facade dependencies for HTTP layer tests.
type CreditAppFacadeStub struct {
	AuthFacadeStub
	*CreditFacadeStub
}

// ReconcileFacadeStub mimics reconciler interactions with credit facade.
type ReconcileFacadeStub struct {
	Accounts    []int64
	Results     map[int64]model.Reconciliation
	ListFn      func(context.Context, int64, int) ([]int64, error)
	ReconcileFn func(context.Context, int64, time.Duration) (*model.Reconciliation, error)

	mu         sync.Mutex
	reconciled []int64
	horizons   []time.Duration
}

// AccountsForReconcile pages through configured accounts by id.
func (s *ReconcileFacadeStub) AccountsForReconcile(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, afterID, limit)
	}
	ids := append([]int64(nil), s.Accounts...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var page []int64
	for _, id := range ids {
		if id > afterID && len(page) < limit {
			page = append(page, id)
		}
	}
	return page, nil
}

// Reconcile records the call and returns configured reconciliation.
func (s *ReconcileFacadeStub) Reconcile(ctx context.Context, accountID int64, horizon time.Duration) (*model.Reconciliation, error) {
	s.mu.Lock()
	s.reconciled = append(s.reconciled, accountID)
	s.horizons = append(s.horizons, horizon)
	s.mu.Unlock()

	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, accountID, horizon)
	}
	rec := s.Results[accountID]
	rec.AccountID = accountID
	return &rec, nil
}

// Reconciled returns the accounts reconciled so far.
func (s *ReconcileFacadeStub) Reconciled() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.reconciled...)
}

// Horizons returns the horizons passed to Reconcile so far.
func (s *ReconcileFacadeStub) Horizons() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.horizons...)
}
