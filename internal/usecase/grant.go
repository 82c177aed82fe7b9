package usecase

import (
	"context"

	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/domain/repository"
)

// AdminGrantUseCase records manual grants and claw-backs issued by administrators.
type AdminGrantUseCase struct {
	ledger *LedgerService
}

// NewAdminGrantUseCase constructs AdminGrantUseCase.
func NewAdminGrantUseCase(ledger *LedgerService) *AdminGrantUseCase {
	return &AdminGrantUseCase{ledger: ledger}
}

// Grant appends a GRANT_MANUAL for non-negative amounts and a DEBIT otherwise.
func (u *AdminGrantUseCase) Grant(ctx context.Context, tx repository.Tx, req model.GrantRequest) (*model.LedgerEntry, error) {
	kind := model.EntryKindGrantManual
	if req.AmountCents < 0 {
		kind = model.EntryKindDebit
	}
	return u.ledger.Append(ctx, tx, model.EntryInput{
		AccountID:   req.AccountID,
		Kind:        kind,
		DeltaCents:  req.AmountCents,
		CreatedBy:   req.CreatedBy,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	})
}
