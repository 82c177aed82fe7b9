package model

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryKindGrantManual    EntryKind = "GRANT_MANUAL"
	EntryKindGrantPromo     EntryKind = "GRANT_PROMO"
	EntryKindGrantFinancing EntryKind = "GRANT_FINANCING"
	EntryKindDebit          EntryKind = "DEBIT"
)

// IsGrant reports whether entries of this kind add credit.
func (k EntryKind) IsGrant() bool {
	switch k {
	case EntryKindGrantManual, EntryKindGrantPromo, EntryKindGrantFinancing:
		return true
	}
	return false
}

// Valid reports whether kind is known.
func (k EntryKind) Valid() bool {
	return k.IsGrant() || k == EntryKindDebit
}

// LedgerEntry is an immutable credit grant or debit for one account.
type LedgerEntry struct {
	ID                 uuid.UUID
	AccountID          int64
	Kind               EntryKind
	DeltaCents         int64
	CreatedBy          *int64
	Description        string
	ExpiresAt          *time.Time
	FinancingAccountID *string
	CreatedAt          time.Time
}

// ExpiredAt reports whether entry no longer counts towards balance at asOf.
// Debits never expire.
func (e LedgerEntry) ExpiredAt(asOf time.Time) bool {
	if !e.Kind.IsGrant() || e.ExpiresAt == nil {
		return false
	}
	return !e.ExpiresAt.After(asOf)
}

// EntryInput describes an entry to be appended.
type EntryInput struct {
	AccountID          int64
	Kind               EntryKind
	DeltaCents         int64
	CreatedBy          *int64
	Description        string
	ExpiresAt          *time.Time
	FinancingAccountID *string
}

// Entry converts input into an entry without identity or timestamp.
func (in EntryInput) Entry() LedgerEntry {
	return LedgerEntry{
		AccountID:          in.AccountID,
		Kind:               in.Kind,
		DeltaCents:         in.DeltaCents,
		CreatedBy:          in.CreatedBy,
		Description:        in.Description,
		ExpiresAt:          in.ExpiresAt,
		FinancingAccountID: in.FinancingAccountID,
	}
}
