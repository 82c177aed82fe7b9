package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/creditledger/internal/app"
	"github.com/polkiloo/creditledger/internal/config"
	"github.com/polkiloo/creditledger/internal/domain/repository"
	"github.com/polkiloo/creditledger/internal/storage/memory"
	"github.com/polkiloo/creditledger/internal/storage/postgres"
	"github.com/polkiloo/creditledger/internal/worker"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:        ":0",
		DatabaseURI:       "postgres://stub",
		JWTSecret:         "secret",
		TokenTTL:          time.Hour,
		LockTimeout:       time.Second,
		ShutdownTimeout:   time.Millisecond,
		ReconcileInterval: time.Minute,
		WorkerPoolSize:    1,
		ReconcileBatch:    1,
		ExpiryHorizon:     time.Hour,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := memory.New(time.Second)

	var (
		facade     *app.CreditFacade
		engine     *gin.Engine
		reconciler *worker.Reconciler
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(fx.Annotate(store, fx.As(new(repository.Transactor)))),
			fx.Replace(fx.Annotate(store.Users(), fx.As(new(repository.UserRepository)))),
			fx.Replace(fx.Annotate(store.Accounts(), fx.As(new(repository.AccountLister)))),
			fx.Replace(fx.Annotate(store, fx.As(new(repository.HealthChecker)))),
		),
		fx.Populate(&facade, &engine, &reconciler),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	if facade == nil || engine == nil || reconciler == nil {
		t.Fatal("expected credit facade, router and reconciler instances")
	}
	if err := facade.HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected memory store to be healthy, got %v", err)
	}
}
