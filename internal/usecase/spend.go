package usecase

import (
	"context"

	domainErrors "github.com/polkiloo/creditledger/internal/domain/errors"
	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/domain/repository"
)

const spendDescription = "Credit applied to payment"

// SpendService applies available credit towards an amount owed.
type SpendService struct {
	ledger *LedgerService
	guard  *AccountGuard
}

// NewSpendService constructs SpendService.
func NewSpendService(ledger *LedgerService, guard *AccountGuard) *SpendService {
	return &SpendService{ledger: ledger, guard: guard}
}

// Spend covers as much of amountOwedCents as the balance allows and debits that part.
// The lock is held from the balance read through the debit.
func (s *SpendService) Spend(ctx context.Context, tx repository.Tx, accountID, amountOwedCents int64) (model.SpendResult, error) {
	if amountOwedCents < 0 {
		return model.SpendResult{}, &domainErrors.ValidationError{Field: "amountOwedCents", Message: "must not be negative"}
	}
	if accountID <= 0 {
		return model.SpendResult{}, &domainErrors.ValidationError{Field: "accountId", Message: "must be positive"}
	}

	var result model.SpendResult
	err := s.guard.WithAccountLock(ctx, tx, accountID, func() error {
		available, err := s.ledger.Balance(ctx, tx, accountID)
		if err != nil {
			return err
		}

		credit := min(max(available, 0), amountOwedCents)
		result = model.SpendResult{
			CreditPaymentCents:    credit,
			NonCreditPaymentCents: amountOwedCents - credit,
		}
		if credit == 0 {
			return nil
		}

		_, err = s.ledger.Append(ctx, tx, model.EntryInput{
			AccountID:   accountID,
			Kind:        model.EntryKindDebit,
			DeltaCents:  -credit,
			Description: spendDescription,
		})
		return err
	})
	if err != nil {
		return model.SpendResult{}, err
	}
	return result, nil
}
