package dto

import "time"

// CreditResponse reports the current balance of an account.
type CreditResponse struct {
	CreditAmountCents int64 `json:"creditAmountCents"`
}

// GrantRequest describes an admin grant or claw-back.
type GrantRequest struct {
	CreditAmountCents *int64     `json:"creditAmountCents" binding:"required"`
	Description       string     `json:"description" binding:"max=500"`
	ExpiresAt         *time.Time `json:"expiresAt"`
}

// SpendRequest describes an amount to be paid with available credit first.
type SpendRequest struct {
	AmountOwedCents *int64 `json:"amountOwedCents" binding:"required"`
}

// SpendResponse reports how an owed amount was split.
type SpendResponse struct {
	CreditPaymentCents    int64 `json:"creditPaymentCents"`
	NonCreditPaymentCents int64 `json:"nonCreditPaymentCents"`
}

// EntryResponse is one ledger entry of the audit trail.
type EntryResponse struct {
	ID                 string     `json:"id"`
	AccountID          int64      `json:"givenTo"`
	Kind               string     `json:"kind"`
	DeltaCents         int64      `json:"deltaCents"`
	CreatedBy          *int64     `json:"createdBy,omitempty"`
	Description        string     `json:"description,omitempty"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	FinancingAccountID *string    `json:"financingAccountId,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// ErrorResponse is the body of failed credit requests.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
