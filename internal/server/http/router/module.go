package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/creditledger/internal/app"
	"github.com/polkiloo/creditledger/internal/server/http/handlers"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Options(
	fx.Provide(func(f *app.CreditFacade) handlers.Facade { return f }),
	fx.Provide(Setup),
)
