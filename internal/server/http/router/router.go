package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/creditledger/internal/metrics"
	"github.com/polkiloo/creditledger/internal/server/http/handlers"
	"github.com/polkiloo/creditledger/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.Facade, logger *slog.Logger, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	creditHandler := handlers.NewCreditHandler(facade)
	adminHandler := handlers.NewAdminCreditHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	api := engine.Group("/api")
	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	userAuth := user.Group("")
	userAuth.Use(middleware.AuthRequired(facade))
	userAuth.GET("/credit", creditHandler.Balance)
	userAuth.GET("/credit/entries", creditHandler.Entries)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(facade), middleware.AdminRequired(facade))
	admin.POST("/users/:id/credit", adminHandler.Grant)
	admin.GET("/users/:id/credit", adminHandler.Balance)
	admin.POST("/users/:id/credit/spend", adminHandler.Spend)

	return engine
}
