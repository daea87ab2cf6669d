package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/auth"
	"ekofoods/marketplace-backend/internal/carbon"
	"ekofoods/marketplace-backend/internal/config"
	"ekofoods/marketplace-backend/internal/discovery"
	"ekofoods/marketplace-backend/internal/inventory"
	"ekofoods/marketplace-backend/internal/notifications"
	"ekofoods/marketplace-backend/internal/reservations"
	"ekofoods/marketplace-backend/internal/tracking"
)

func main() {
	// Load .env before anything reads the environment
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Logging.Level == "debug" {
		logger, _ = zap.NewDevelopment()
		gin.SetMode(gin.DebugMode)
	} else {
		logger, _ = zap.NewProduction()
		gin.SetMode(gin.ReleaseMode)
	}
	defer logger.Sync()

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// Wire the core
	repo := inventory.NewPostgresRepository(db)
	trackingService := tracking.NewService(repo, logger)
	hub := notifications.NewHub(logger)
	ledger := inventory.NewLedger(repo, trackingService, hub, logger)
	manager := reservations.NewManager(ledger, logger)
	discoveryService := discovery.NewService(repo, logger)
	carbonService := carbon.NewService(repo, logger)

	inventoryHandler := inventory.NewHandler(ledger, logger)
	reservationsHandler := reservations.NewHandler(manager, logger)
	discoveryHandler := discovery.NewHandler(discoveryService, logger)
	carbonHandler := carbon.NewHandler(carbonService, logger)
	trackingHandler := tracking.NewHandler(trackingService, logger)

	// Background expiry sweep
	sweeper := reservations.NewSweeper(manager, cfg.Reservations.SweepInterval(), logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start reservation sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	// Setup Router
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Public routes: browse, trace, availability push, order summary
	api := router.Group("/api/v1")
	{
		discoveryHandler.RegisterRoutes(api)
		trackingHandler.RegisterRoutes(api)
		carbonHandler.RegisterRoutes(api)
		hub.RegisterRoutes(api)
	}

	// Authenticated routes: cart mutations and product lifecycle
	protected := router.Group("/api/v1")
	if cfg.Security.JWTSecret != "" {
		protected.Use(auth.Middleware(cfg.Security.JWTSecret))
	} else {
		logger.Warn("JWT_SECRET not set, lifecycle routes are unauthenticated")
	}
	{
		inventoryHandler.RegisterRoutes(protected)
		reservationsHandler.RegisterRoutes(protected)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	logger.Info("Server exiting")
}
