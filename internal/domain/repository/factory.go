package repository

import "context"

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Factory describes access to different domain repositories.
type Factory interface {
	Transactor
	HealthChecker
	Users() UserRepository
	Accounts() AccountLister
}
