package balance

import (
	"testing"
	"time"

	"github.com/polkiloo/creditledger/internal/domain/model"
)

func at(t time.Time) *time.Time { return &t }

func grant(amount int64, createdAt time.Time, expiresAt *time.Time) model.LedgerEntry {
	return model.LedgerEntry{Kind: model.EntryKindGrantManual, DeltaCents: amount, CreatedAt: createdAt, ExpiresAt: expiresAt}
}

func debit(amount int64, createdAt time.Time) model.LedgerEntry {
	return model.LedgerEntry{Kind: model.EntryKindDebit, DeltaCents: -amount, CreatedAt: createdAt}
}

func TestComputeExpiredGrantsForfeitOnlyTheirRemainder(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	entries := []model.LedgerEntry{
		grant(99, now.Add(-time.Hour), nil),
		grant(500, now.Add(-time.Hour), at(now.Add(-time.Millisecond))),
		grant(1000, now.Add(-time.Minute), at(now.Add(time.Second))),
		debit(200, now),
	}

	if got := Compute(entries, now); got != 899 {
		t.Fatalf("expected 899 before expiry, got %d", got)
	}
	if got := Compute(entries, now.Add(2*time.Second)); got != 99 {
		t.Fatalf("expected 99 after the expiring grant lapsed, got %d", got)
	}
}

func TestComputeTimeline(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ms := func(n int) time.Time { return base.Add(time.Duration(n) * time.Millisecond) }

	var entries []model.LedgerEntry
	check := func(now int, want int64) {
		t.Helper()
		if got := Compute(entries, ms(now)); got != want {
			t.Errorf("at t=%d expected %d, got %d", now, want, got)
		}
	}

	entries = append(entries, grant(2000, ms(1000), at(ms(5000))))
	check(1500, 2000)
	entries = append(entries, grant(3300, ms(2000), at(ms(4000))))
	check(2500, 5300)
	entries = append(entries, debit(4000, ms(3000)))
	check(3500, 1300)
	check(4500, 1300)
	check(5500, 0)
}

func TestComputeGrantAlreadyExpiredAtInsert(t *testing.T) {
	now := time.Now()
	entries := []model.LedgerEntry{grant(500, now, at(now.Add(-time.Millisecond)))}
	if got := Compute(entries, now); got != 0 {
		t.Fatalf("expected expired grant to contribute 0, got %d", got)
	}
}

func TestComputeDebitsAlwaysCount(t *testing.T) {
	now := time.Now()
	entries := []model.LedgerEntry{
		grant(300, now.Add(-time.Minute), nil),
		{Kind: model.EntryKindDebit, DeltaCents: -100, ExpiresAt: at(now.Add(-time.Hour)), CreatedAt: now},
	}
	if got := Compute(entries, now); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
}

func TestComputeOrderIndependentInput(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.LedgerEntry{
		debit(4000, base.Add(3*time.Second)),
		grant(3300, base.Add(2*time.Second), at(base.Add(4*time.Second))),
		grant(2000, base.Add(time.Second), at(base.Add(5*time.Second))),
	}
	if got := Compute(entries, base.Add(4500*time.Millisecond)); got != 1300 {
		t.Fatalf("expected 1300 regardless of slice order, got %d", got)
	}
}

func TestComputeUncoveredDebitIsNegative(t *testing.T) {
	now := time.Now()
	entries := []model.LedgerEntry{
		debit(100, now.Add(-time.Minute)),
		grant(30, now, nil),
	}
	if got := Compute(entries, now); got != -70 {
		t.Fatalf("expected -70, got %d", got)
	}
}

func TestComputeIsPureAcrossInstants(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.LedgerEntry{grant(1000, base, at(base.Add(time.Second)))}

	first := Compute(entries, base)
	later := Compute(entries, base.Add(time.Second))
	again := Compute(entries, base)

	if first != 1000 || later != 0 || again != 1000 {
		t.Fatalf("unexpected balances: %d %d %d", first, later, again)
	}
}

func TestComputeEmptyAndZero(t *testing.T) {
	if got := Compute(nil, time.Now()); got != 0 {
		t.Fatalf("expected 0 for empty ledger, got %d", got)
	}
	entries := []model.LedgerEntry{{Kind: model.EntryKindGrantManual, DeltaCents: 0}}
	if got := Compute(entries, time.Now()); got != 0 {
		t.Fatalf("expected zero entry to be inert, got %d", got)
	}
}

func TestExpiring(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.LedgerEntry{
		grant(500, now.Add(-time.Hour), at(now.Add(time.Hour))),
		grant(700, now.Add(-time.Hour), at(now.Add(48*time.Hour))),
		grant(100, now.Add(-time.Hour), nil),
		debit(200, now.Add(-time.Minute)),
	}

	if got := Expiring(entries, now, 24*time.Hour); got != 300 {
		t.Fatalf("expected 300 expiring within a day, got %d", got)
	}
	if got := Expiring(entries, now, 72*time.Hour); got != 1000 {
		t.Fatalf("expected 1000 expiring within three days, got %d", got)
	}
	if got := Expiring(entries, now, 0); got != 0 {
		t.Fatalf("expected 0 for empty horizon, got %d", got)
	}
}

func TestComputeCreditsFirstOnTimestampTies(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.LedgerEntry{
		debit(200, now),
		grant(99, now, nil),
		grant(1000, now, at(now.Add(time.Hour))),
	}
	if got := Compute(entries, now.Add(2*time.Hour)); got != 99 {
		t.Fatalf("expected debit to draw on the expiring grant, got %d", got)
	}
}
