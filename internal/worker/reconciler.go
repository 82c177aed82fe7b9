package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/creditledger/internal/domain/model"
	"github.com/polkiloo/creditledger/internal/metrics"
)

// CreditFacade exposes the subset of application functionality required by the reconciler.
type CreditFacade interface {
	AccountsForReconcile(ctx context.Context, afterID int64, limit int) ([]int64, error)
	Reconcile(ctx context.Context, accountID int64, horizon time.Duration) (*model.Reconciliation, error)
}

// Reconciler periodically recomputes every credit account and reports
// negative balances and credit that is about to expire.
type Reconciler struct {
	facade    CreditFacade
	interval  time.Duration
	batchSize int
	workers   int
	horizon   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

type pass struct {
	wg       sync.WaitGroup
	accounts atomic.Int64
	negative atomic.Int64
	expiring atomic.Int64
}

type job struct {
	accountID int64
	pass      *pass
}

const defaultInterval = time.Minute

// NewReconciler constructs reconciler worker pool. A non-positive interval falls back to one minute.
func NewReconciler(facade CreditFacade, interval time.Duration, batchSize, workers int, horizon time.Duration, logger *slog.Logger, m *metrics.Metrics) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Reconciler{
		facade:    facade,
		interval:  interval,
		batchSize: batchSize,
		workers:   workers,
		horizon:   horizon,
		logger:    logger,
		metrics:   m,
	}
}

// Start launches background reconciliation. It is a no-op while already
// running; after Stop it starts a fresh pool.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	jobs := make(chan job, r.batchSize)

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx, jobs)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx, jobs)
}

// Stop waits for all workers to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) dispatch(ctx context.Context, jobs chan<- job) {
	defer r.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runPass(ctx, jobs)
		}
	}
}

func (r *Reconciler) runPass(ctx context.Context, jobs chan<- job) {
	p := &pass{}
	defer func() {
		p.wg.Wait()
		if ctx.Err() != nil {
			return
		}
		accounts, negative, expiring := p.accounts.Load(), p.negative.Load(), p.expiring.Load()
		r.metrics.ObserveReconcilePass(int(accounts), int(negative), expiring)
		r.logger.Info("reconcile pass finished",
			slog.Int64("accounts", accounts),
			slog.Int64("negative", negative),
			slog.Int64("expiring_cents", expiring),
		)
	}()

	var after int64
	for {
		ids, err := r.facade.AccountsForReconcile(ctx, after, r.batchSize)
		if err != nil {
			r.logger.Error("list accounts for reconcile failed", slog.String("error", err.Error()))
			return
		}
		for _, id := range ids {
			p.wg.Add(1)
			select {
			case <-ctx.Done():
				p.wg.Done()
				return
			case jobs <- job{accountID: id, pass: p}:
			}
			after = id
		}
		if len(ids) < r.batchSize {
			return
		}
	}
}

func (r *Reconciler) worker(ctx context.Context, jobs <-chan job) {
	defer r.wg.Done()
	for j := range jobs {
		if ctx.Err() == nil {
			r.handleAccount(ctx, j)
		}
		j.pass.wg.Done()
	}
}

func (r *Reconciler) handleAccount(ctx context.Context, j job) {
	rec, err := r.facade.Reconcile(ctx, j.accountID, r.horizon)
	if err != nil {
		r.logger.Error("reconcile account failed", slog.Int64("account_id", j.accountID), slog.String("error", err.Error()))
		return
	}

	j.pass.accounts.Add(1)
	j.pass.expiring.Add(rec.ExpiringCents)
	if rec.Negative() {
		j.pass.negative.Add(1)
		r.logger.Error("negative credit balance",
			slog.Int64("account_id", rec.AccountID),
			slog.Int64("balance_cents", rec.BalanceCents),
		)
	}
}
