// Package balance computes point-in-time credit balances from ledger entries.
package balance

import (
	"sort"
	"time"

	"github.com/polkiloo/creditledger/internal/domain/model"
)

type lot struct {
	remaining int64
	expiresAt *time.Time
}

// Compute returns the credit available at asOf.
//
// Entries are replayed in CreatedAt order, credits first on ties. Each debit
// draws on the live grants that expire soonest, and a grant that reaches its
// ExpiresAt forfeits only what is left of it. Debits always count. Debits that
// exceed the credit available at their time make the result negative.
func Compute(entries []model.LedgerEntry, asOf time.Time) int64 {
	ordered := make([]model.LedgerEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.DeltaCents > 0 && b.DeltaCents <= 0
	})

	var (
		lots []lot
		debt int64
	)
	for _, e := range ordered {
		cutoff := e.CreatedAt
		if cutoff.After(asOf) {
			cutoff = asOf
		}
		lots = dropExpired(lots, cutoff)

		switch {
		case e.DeltaCents > 0:
			if e.ExpiredAt(cutoff) {
				continue
			}
			amount := e.DeltaCents
			if debt > 0 {
				paid := min(amount, debt)
				debt -= paid
				amount -= paid
			}
			if amount > 0 {
				var expiresAt *time.Time
				if e.Kind.IsGrant() {
					expiresAt = e.ExpiresAt
				}
				lots = insertLot(lots, lot{remaining: amount, expiresAt: expiresAt})
			}
		case e.DeltaCents < 0:
			lots, debt = consume(lots, -e.DeltaCents, debt)
		}
	}

	lots = dropExpired(lots, asOf)

	var total int64
	for _, l := range lots {
		total += l.remaining
	}
	return total - debt
}

// Expiring returns the cents that stop counting between asOf and asOf+horizon.
func Expiring(entries []model.LedgerEntry, asOf time.Time, horizon time.Duration) int64 {
	if horizon <= 0 {
		return 0
	}
	return Compute(entries, asOf) - Compute(entries, asOf.Add(horizon))
}

// insertLot keeps lots ordered by expiry, non-expiring last, arrival order on ties.
func insertLot(lots []lot, l lot) []lot {
	i := sort.Search(len(lots), func(i int) bool {
		return expiresBefore(l, lots[i])
	})
	lots = append(lots, lot{})
	copy(lots[i+1:], lots[i:])
	lots[i] = l
	return lots
}

func expiresBefore(a, b lot) bool {
	switch {
	case a.expiresAt == nil:
		return false
	case b.expiresAt == nil:
		return true
	default:
		return a.expiresAt.Before(*b.expiresAt)
	}
}

func consume(lots []lot, amount, debt int64) ([]lot, int64) {
	for len(lots) > 0 && amount > 0 {
		taken := min(lots[0].remaining, amount)
		lots[0].remaining -= taken
		amount -= taken
		if lots[0].remaining == 0 {
			lots = lots[1:]
		}
	}
	return lots, debt + amount
}

func dropExpired(lots []lot, cutoff time.Time) []lot {
	kept := lots[:0]
	for _, l := range lots {
		if l.expiresAt != nil && !l.expiresAt.After(cutoff) {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}
