package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/creditledger/internal/domain/errors"
	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/domain/repository"
)

func newUser(t *testing.T, s *Store, login string) int64 {
	t.Helper()
	u, err := s.Users().Create(context.Background(), login, "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func appendEntry(ctx context.Context, tx repository.Tx, accountID, delta int64) error {
	kind := model.EntryKindGrantManual
	if delta < 0 {
		kind = model.EntryKindDebit
	}
	_, err := tx.Ledger().Append(ctx, model.LedgerEntry{AccountID: accountID, Kind: kind, DeltaCents: delta})
	return err
}

func listEntries(t *testing.T, s *Store, accountID int64) []model.LedgerEntry {
	t.Helper()
	var entries []model.LedgerEntry
	err := s.WithinTransaction(context.Background(), func(tx repository.Tx) error {
		var err error
		entries, err = tx.Ledger().ListForAccount(context.Background(), accountID)
		return err
	})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	return entries
}

func TestUsers(t *testing.T) {
	s := New(time.Second)
	ctx := context.Background()

	u, err := s.Users().Create(ctx, "alice", "hash", model.RoleAdmin)
	if err != nil || u.ID != 1 || !u.IsAdmin() {
		t.Fatalf("unexpected user %+v err=%v", u, err)
	}
	if _, err := s.Users().Create(ctx, "alice", "other", model.RoleUser); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	if got, err := s.Users().GetByLogin(ctx, "alice"); err != nil || got.ID != u.ID {
		t.Fatalf("unexpected lookup %+v err=%v", got, err)
	}
	if got, err := s.Users().GetByID(ctx, u.ID); err != nil || got.Login != "alice" {
		t.Fatalf("unexpected lookup %+v err=%v", got, err)
	}
	if _, err := s.Users().GetByLogin(ctx, "bob"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.Users().GetByID(ctx, 99); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommitMakesEntriesVisible(t *testing.T) {
	s := New(time.Second)
	ctx := context.Background()
	id := newUser(t, s, "alice")

	err := s.WithinTransaction(ctx, func(tx repository.Tx) error {
		if err := appendEntry(ctx, tx, id, 500); err != nil {
			return err
		}
		staged, err := tx.Ledger().ListForAccount(ctx, id)
		if err != nil {
			return err
		}
		if len(staged) != 1 {
			t.Errorf("expected staged entry to be visible inside the transaction, got %d", len(staged))
		}
		if outside := listEntries(t, s, id); len(outside) != 0 {
			t.Errorf("expected staged entry to be invisible outside the transaction, got %d", len(outside))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := listEntries(t, s, id)
	if len(entries) != 1 || entries[0].DeltaCents != 500 || entries[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestRollbackDiscardsEverything(t *testing.T) {
	s := New(time.Second)
	ctx := context.Background()
	id := newUser(t, s, "alice")

	boom := errors.New("boom")
	err := s.WithinTransaction(ctx, func(tx repository.Tx) error {
		if err := tx.Locks().LockAccount(ctx, id); err != nil {
			return err
		}
		if err := appendEntry(ctx, tx, id, 100); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if entries := listEntries(t, s, id); len(entries) != 0 {
		t.Fatalf("expected no entries after rollback, got %+v", entries)
	}

	ids, _ := s.Accounts().ListAccounts(ctx, 0, 10)
	if len(ids) != 0 {
		t.Fatalf("expected no account registered after rollback, got %v", ids)
	}
}

func TestUnknownAccount(t *testing.T) {
	s := New(time.Second)
	ctx := context.Background()

	err := s.WithinTransaction(ctx, func(tx repository.Tx) error {
		return tx.Locks().LockAccount(ctx, 42)
	})
	if !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found on lock, got %v", err)
	}

	err = s.WithinTransaction(ctx, func(tx repository.Tx) error {
		return appendEntry(ctx, tx, 42, 1)
	})
	if !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found on append, got %v", err)
	}
}

func TestLockIsReentrantWithinTransaction(t *testing.T) {
	s := New(50 * time.Millisecond)
	ctx := context.Background()
	id := newUser(t, s, "alice")

	err := s.WithinTransaction(ctx, func(tx repository.Tx) error {
		if err := tx.Locks().LockAccount(ctx, id); err != nil {
			return err
		}
		return tx.Locks().LockAccount(ctx, id)
	})
	if err != nil {
		t.Fatalf("expected re-entrant lock, got %v", err)
	}
}

func TestLockTimeout(t *testing.T) {
	s := New(20 * time.Millisecond)
	ctx := context.Background()
	id := newUser(t, s, "alice")

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.WithinTransaction(ctx, func(tx repository.Tx) error {
			if err := tx.Locks().LockAccount(ctx, id); err != nil {
				return err
			}
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := s.WithinTransaction(ctx, func(tx repository.Tx) error {
		return tx.Locks().LockAccount(ctx, id)
	})
	close(done)

	var timeoutErr *domainErrors.ConcurrencyTimeoutError
	if !errors.As(err, &timeoutErr) || timeoutErr.AccountID != id {
		t.Fatalf("expected concurrency timeout, got %v", err)
	}
	if !domainErrors.IsRetryable(err) {
		t.Fatalf("expected retryable error")
	}
}

func TestLockRespectsContextCancellation(t *testing.T) {
	s := New(0)
	id := newUser(t, s, "alice")

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.WithinTransaction(context.Background(), func(tx repository.Tx) error {
			if err := tx.Locks().LockAccount(context.Background(), id); err != nil {
				return err
			}
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.WithinTransaction(ctx, func(tx repository.Tx) error {
		return tx.Locks().LockAccount(ctx, id)
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}

func TestCanceledContextSkipsTransaction(t *testing.T) {
	s := New(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTransaction(ctx, func(repository.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected canceled without running fn, got %v called=%v", err, called)
	}
}

func TestSameAccountWritersSerialize(t *testing.T) {
	s := New(time.Second)
	ctx := context.Background()
	id := newUser(t, s, "alice")

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTransaction(ctx, func(tx repository.Tx) error {
				if err := tx.Locks().LockAccount(ctx, id); err != nil {
					return err
				}
				entries, err := tx.Ledger().ListForAccount(ctx, id)
				if err != nil {
					return err
				}
				if len(entries) > 0 {
					return nil
				}
				return appendEntry(ctx, tx, id, 100)
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if entries := listEntries(t, s, id); len(entries) != 1 {
		t.Fatalf("expected exactly one entry under serialization, got %d", len(entries))
	}
}

func TestListAccounts(t *testing.T) {
	s := New(time.Second)
	ctx := context.Background()

	var ids []int64
	for _, login := range []string{"a", "b", "c"} {
		id := newUser(t, s, login)
		ids = append(ids, id)
		err := s.WithinTransaction(ctx, func(tx repository.Tx) error {
			return tx.Locks().LockAccount(ctx, id)
		})
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
	}

	page, _ := s.Accounts().ListAccounts(ctx, 0, 2)
	if len(page) != 2 || page[0] != ids[0] || page[1] != ids[1] {
		t.Fatalf("unexpected first page %v", page)
	}
	page, _ = s.Accounts().ListAccounts(ctx, page[1], 2)
	if len(page) != 1 || page[0] != ids[2] {
		t.Fatalf("unexpected second page %v", page)
	}
	if err := s.HealthCheck(ctx); err != nil {
		t.Fatalf("unexpected health error: %v", err)
	}
}
