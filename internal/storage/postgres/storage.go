package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/creditledger/internal/domain/errors"
	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/domain/repository"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeLockNotAvailable    = "55P03"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool        pgxPool
	logger      *slog.Logger
	lockTimeout time.Duration
}

var _ repository.Factory = (*Storage)(nil)

type userRepository struct {
	storage *Storage
}

type accountLister struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, lockTimeout time.Duration, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger, lockTimeout: lockTimeout}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Users returns the user repository.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

// Accounts returns the lister used by the reconciler.
func (s *Storage) Accounts() repository.AccountLister {
	return &accountLister{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'USER',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS credit_accounts (
            account_id BIGINT PRIMARY KEY REFERENCES users(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS credit_entries (
            id UUID PRIMARY KEY,
            account_id BIGINT NOT NULL REFERENCES users(id),
            kind TEXT NOT NULL,
            delta_cents BIGINT NOT NULL,
            created_by BIGINT REFERENCES users(id),
            description TEXT NOT NULL DEFAULT '',
            expires_at TIMESTAMPTZ,
            financing_account_id TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_credit_entries_account ON credit_entries(account_id, created_at)`,
		`CREATE OR REPLACE FUNCTION credit_entries_append_only() RETURNS trigger AS $$
        BEGIN
            RAISE EXCEPTION 'credit_entries is append-only';
        END;
        $$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS credit_entries_no_update ON credit_entries`,
		`CREATE TRIGGER credit_entries_no_update BEFORE UPDATE OR DELETE ON credit_entries
            FOR EACH ROW EXECUTE FUNCTION credit_entries_append_only()`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	const query = `INSERT INTO users (login, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	u := model.User{Login: login, PasswordHash: passwordHash, Role: role}
	err := r.storage.pool.QueryRow(ctx, query, login, passwordHash, string(role)).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	const query = `SELECT id, login, password_hash, role, created_at FROM users WHERE login=$1`
	return r.get(ctx, query, login)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, login, password_hash, role, created_at FROM users WHERE id=$1`
	return r.get(ctx, query, id)
}

func (r *userRepository) get(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.storage.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Login, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// --- AccountLister implementation ---

func (r *accountLister) ListAccounts(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	const query = `SELECT account_id FROM credit_accounts WHERE account_id > $1 ORDER BY account_id LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(repository.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Warn("rollback after panic failed", slog.Any("error", rbErr))
			}
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Warn("rollback failed", slog.Any("error", rbErr))
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(&unitOfWork{tx: tx, lockTimeout: s.lockTimeout, locked: make(map[int64]struct{})})
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}

// unitOfWork binds ledger reads, writes and account locks to one pgx transaction.
type unitOfWork struct {
	tx          pgx.Tx
	lockTimeout time.Duration
	locked      map[int64]struct{}
}

func (u *unitOfWork) Ledger() repository.LedgerRepository {
	return &ledgerRepository{tx: u.tx}
}

func (u *unitOfWork) Locks() repository.AccountLocker {
	return u
}

// LockAccount serializes writers of one account on a sentinel row in credit_accounts.
func (u *unitOfWork) LockAccount(ctx context.Context, accountID int64) error {
	if _, ok := u.locked[accountID]; ok {
		return nil
	}

	const (
		setLockTimeout = `SELECT set_config('lock_timeout', $1, true)`
		ensureAccount  = `INSERT INTO credit_accounts (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`
		lockAccount    = `SELECT account_id FROM credit_accounts WHERE account_id=$1 FOR UPDATE`
	)

	if u.lockTimeout > 0 {
		if _, err := u.tx.Exec(ctx, setLockTimeout, fmt.Sprintf("%dms", u.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if _, err := u.tx.Exec(ctx, ensureAccount, accountID); err != nil {
		return u.lockError(accountID, err)
	}

	var locked int64
	if err := u.tx.QueryRow(ctx, lockAccount, accountID).Scan(&locked); err != nil {
		return u.lockError(accountID, err)
	}

	u.locked[accountID] = struct{}{}
	return nil
}

func (u *unitOfWork) lockError(accountID int64, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable:
			return &domainErrors.ConcurrencyTimeoutError{AccountID: accountID, Wait: u.lockTimeout, Err: err}
		case codeForeignKeyViolation:
			return domainErrors.ErrNotFound
		}
	}
	return fmt.Errorf("lock credit account %d: %w", accountID, err)
}

// --- LedgerRepository implementation ---

type ledgerRepository struct {
	tx pgx.Tx
}

func (r *ledgerRepository) Append(ctx context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error) {
	const query = `INSERT INTO credit_entries
                   (id, account_id, kind, delta_cents, created_by, description, expires_at, financing_account_id, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	_, err := r.tx.Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		string(entry.Kind),
		entry.DeltaCents,
		entry.CreatedBy,
		entry.Description,
		entry.ExpiresAt,
		entry.FinancingAccountID,
		entry.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("append credit entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) ListForAccount(ctx context.Context, accountID int64) ([]model.LedgerEntry, error) {
	const query = `SELECT id, account_id, kind, delta_cents, created_by, description, expires_at, financing_account_id, created_at
                   FROM credit_entries WHERE account_id=$1 ORDER BY created_at`
	rows, err := r.tx.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list credit entries: %w", err)
	}
	defer rows.Close()

	var result []model.LedgerEntry
	for rows.Next() {
		var (
			e    model.LedgerEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &kind, &e.DeltaCents, &e.CreatedBy, &e.Description, &e.ExpiresAt, &e.FinancingAccountID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = model.EntryKind(kind)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
