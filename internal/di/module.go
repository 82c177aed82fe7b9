package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/creditledger/internal/app"
	"github.com/polkiloo/creditledger/internal/config"
	"github.com/polkiloo/creditledger/internal/logger"
	"github.com/polkiloo/creditledger/internal/metrics"
	"github.com/polkiloo/creditledger/internal/pkg/auth"
	"github.com/polkiloo/creditledger/internal/server/http/router"
	"github.com/polkiloo/creditledger/internal/storage/postgres"
	"github.com/polkiloo/creditledger/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
