package model

import "time"

// GrantRequest is an administrative grant (positive) or claw-back (negative).
type GrantRequest struct {
	AccountID   int64
	AmountCents int64
	CreatedBy   *int64
	Description string
	ExpiresAt   *time.Time
}

// SpendResult splits an owed amount into credit and non-credit parts.
type SpendResult struct {
	CreditPaymentCents    int64
	NonCreditPaymentCents int64
}

// Reconciliation is a point-in-time audit of one account.
type Reconciliation struct {
	AccountID     int64
	BalanceCents  int64
	ExpiringCents int64
	CheckedAt     time.Time
}

// Negative reports whether balance violates the non-negative invariant.
func (r Reconciliation) Negative() bool {
	return r.BalanceCents < 0
}
