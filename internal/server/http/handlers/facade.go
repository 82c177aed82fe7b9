package handlers

import (
	"context"

	"github.com/polkiloo/creditledger/internal/domain/model"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password, adminSecret string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (int64, error)
}

// CreditFacade exposes read access to a user's credit.
type CreditFacade interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	Entries(ctx context.Context, userID int64) ([]model.LedgerEntry, error)
}

// AdminFacade exposes credit mutations reserved for administrators.
type AdminFacade interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	Grant(ctx context.Context, req model.GrantRequest) (*model.LedgerEntry, error)
	Spend(ctx context.Context, userID, amountOwedCents int64) (model.SpendResult, error)
}

// HealthFacade reports storage availability.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// Facade aggregates the full set of operations used across handlers.
type Facade interface {
	AuthFacade
	CreditFacade
	AdminFacade
	HealthFacade
	UserRole(ctx context.Context, userID int64) (model.Role, error)
}
