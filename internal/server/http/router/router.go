package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/avdeyev/reviewflow/internal/server/http/handlers"
	"github.com/avdeyev/reviewflow/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.MarketFacade, dispatcher handlers.UpdateDispatcher, adminTokenHash string, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	webhookHandler := handlers.NewWebhookHandler(dispatcher, logger)
	merchantHandler := handlers.NewMerchantHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	reviewHandler := handlers.NewReviewHandler(facade)

	engine.POST("/telegram/webhook", webhookHandler.Handle)

	api := engine.Group("/api")
	api.Use(middleware.AdminAuth(adminTokenHash))
	api.POST("/merchants", merchantHandler.Create)
	api.POST("/orders", orderHandler.Create)
	api.POST("/orders/:id/complete", orderHandler.Complete)
	api.GET("/reviews/:id", reviewHandler.Details)

	return engine
}
