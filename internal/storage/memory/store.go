// Package memory is a transactional in-process implementation of the repository interfaces.
// It mirrors the PostgreSQL semantics: per-account locks held until the transaction ends,
// writes invisible to others until commit and discarded on rollback.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/creditledger/internal/domain/errors"
	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/domain/repository"
)

// Store keeps users and ledger entries in memory.
type Store struct {
	lockTimeout time.Duration

	mu       sync.Mutex
	nextID   int64
	users    map[int64]model.User
	logins   map[string]int64
	entries  map[int64][]model.LedgerEntry
	accounts map[int64]struct{}
	locks    map[int64]chan struct{}
}

var _ repository.Factory = (*Store)(nil)

// New creates an empty store. A non-positive lockTimeout waits for locks until ctx is done.
func New(lockTimeout time.Duration) *Store {
	return &Store{
		lockTimeout: lockTimeout,
		users:       make(map[int64]model.User),
		logins:      make(map[string]int64),
		entries:     make(map[int64][]model.LedgerEntry),
		accounts:    make(map[int64]struct{}),
		locks:       make(map[int64]chan struct{}),
	}
}

// Users returns the user repository.
func (s *Store) Users() repository.UserRepository {
	return userRepository{store: s}
}

// Accounts returns the lister used by the reconciler.
func (s *Store) Accounts() repository.AccountLister {
	return accountLister{store: s}
}

// HealthCheck always succeeds unless ctx is done.
func (s *Store) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

// WithinTransaction runs fn with a fresh unit of work. Staged entries become visible
// to other transactions only when fn returns nil; account locks are released afterwards.
func (s *Store) WithinTransaction(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &unitOfWork{store: s, held: make(map[int64]chan struct{})}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range tx.staged {
		s.entries[e.AccountID] = append(s.entries[e.AccountID], e)
	}
	for id := range tx.held {
		s.accounts[id] = struct{}{}
	}
	return nil
}

func (s *Store) lockFor(accountID int64) chan struct{} {
	ch, ok := s.locks[accountID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[accountID] = ch
	}
	return ch
}

type unitOfWork struct {
	store  *Store
	held   map[int64]chan struct{}
	staged []model.LedgerEntry
}

func (u *unitOfWork) Ledger() repository.LedgerRepository {
	return ledgerRepository{tx: u}
}

func (u *unitOfWork) Locks() repository.AccountLocker {
	return u
}

func (u *unitOfWork) LockAccount(ctx context.Context, accountID int64) error {
	if _, ok := u.held[accountID]; ok {
		return nil
	}

	u.store.mu.Lock()
	if _, ok := u.store.users[accountID]; !ok {
		u.store.mu.Unlock()
		return domainErrors.ErrNotFound
	}
	ch := u.store.lockFor(accountID)
	u.store.mu.Unlock()

	waitCtx := ctx
	if u.store.lockTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, u.store.lockTimeout)
		defer cancel()
	}

	select {
	case ch <- struct{}{}:
		u.held[accountID] = ch
		return nil
	case <-waitCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return &domainErrors.ConcurrencyTimeoutError{
			AccountID: accountID,
			Wait:      u.store.lockTimeout,
			Err:       waitCtx.Err(),
		}
	}
}

func (u *unitOfWork) release() {
	for id, ch := range u.held {
		<-ch
		delete(u.held, id)
	}
}

type ledgerRepository struct {
	tx *unitOfWork
}

func (r ledgerRepository) Append(_ context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error) {
	s := r.tx.store
	s.mu.Lock()
	_, known := s.users[entry.AccountID]
	s.mu.Unlock()
	if !known {
		return nil, domainErrors.ErrNotFound
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	r.tx.staged = append(r.tx.staged, entry)

	stored := entry
	return &stored, nil
}

func (r ledgerRepository) ListForAccount(_ context.Context, accountID int64) ([]model.LedgerEntry, error) {
	s := r.tx.store
	s.mu.Lock()
	committed := s.entries[accountID]
	result := make([]model.LedgerEntry, 0, len(committed))
	result = append(result, committed...)
	s.mu.Unlock()

	for _, e := range r.tx.staged {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	return result, nil
}

type userRepository struct {
	store *Store
}

func (r userRepository) Create(_ context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.logins[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	s.nextID++
	u := model.User{
		ID:           s.nextID,
		Login:        login,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	s.logins[login] = u.ID
	return &u, nil
}

func (r userRepository) GetByLogin(_ context.Context, login string) (*model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.logins[login]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (r userRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &u, nil
}

type accountLister struct {
	store *Store
}

func (l accountLister) ListAccounts(_ context.Context, afterID int64, limit int) ([]int64, error) {
	s := l.store
	s.mu.Lock()
	ids := make([]int64, 0, len(s.accounts))
	for id := range s.accounts {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
