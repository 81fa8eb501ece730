package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/orcvnrln/papersim/internal/auth"
	"github.com/orcvnrln/papersim/internal/database"
	"github.com/orcvnrln/papersim/internal/engine"
	"github.com/orcvnrln/papersim/internal/feed"
	"github.com/orcvnrln/papersim/internal/indicators"
	"github.com/orcvnrln/papersim/internal/journal"
	"github.com/orcvnrln/papersim/internal/montecarlo"
	"github.com/orcvnrln/papersim/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the paper trading API server with graceful
// shutdown support.
func main() {
	// Initialize database (in-memory unless DATABASE_PATH is set)
	db, err := database.NewDatabase(os.Getenv("DATABASE_PATH"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "papersim-secret-key"
	}
	authService := auth.NewService(jwtSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	tradingEngine, err := engine.New(engine.DefaultConfig())
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize engine")
	}
	engineHandlers := engine.NewGinHandlers(tradingEngine)
	simulationHandlers := montecarlo.NewGinHandlers(tradingEngine)
	indicatorHandlers := indicators.NewGinHandlers()
	priceFeed := feed.New(tradingEngine)

	// Wire the audit journal and start the snapshot processor
	sessionJournal := journal.New(db.DB)
	sessionJournal.Attach(tradingEngine)

	snapshotProcessor := journal.NewProcessor(sessionJournal, tradingEngine, 30*time.Second)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go snapshotProcessor.Start(processorCtx)

	tradingEngine.Start()

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, authService, authHandlers, engineHandlers, simulationHandlers, indicatorHandlers, priceFeed)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers.
// Auth routes are public; everything else requires a valid JWT.
func setupRoutes(
	router *gin.Engine,
	authService *auth.Service,
	authHandlers *auth.GinHandlers,
	engineHandlers *engine.GinHandlers,
	simulationHandlers *montecarlo.GinHandlers,
	indicatorHandlers *indicators.GinHandlers,
	priceFeed *feed.Feed,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Everything below requires a valid token
		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(authService.Secret()))
		{
			engineGroup := protected.Group("/engine")
			{
				engineGroup.POST("/start", engineHandlers.StartHandler())
				engineGroup.POST("/stop", engineHandlers.StopHandler())
				engineGroup.POST("/reset", engineHandlers.ResetHandler())
			}

			orders := protected.Group("/orders")
			{
				orders.POST("/market", engineHandlers.MarketOrderHandler())
				orders.POST("/limit", engineHandlers.LimitOrderHandler())
				orders.POST("/stop", engineHandlers.StopOrderHandler())
				orders.GET("", engineHandlers.ListOrdersHandler())
				orders.GET("/:order_id", engineHandlers.GetOrderHandler())
				orders.DELETE("/:order_id", engineHandlers.CancelOrderHandler())
			}

			prices := protected.Group("/prices")
			{
				prices.POST("", engineHandlers.UpdatePricesHandler())
				prices.GET("/stream", priceFeed.StreamHandler())
			}

			protected.GET("/portfolio", engineHandlers.PortfolioHandler())
			protected.GET("/portfolio/equity", engineHandlers.EquityCurveHandler())
			protected.GET("/metrics", engineHandlers.MetricsHandler())
			protected.GET("/trades", engineHandlers.TradesHandler())

			protected.POST("/simulations/montecarlo", simulationHandlers.RunHandler())
			protected.POST("/indicators/:name", indicatorHandlers.ComputeHandler())
		}
	}
}
