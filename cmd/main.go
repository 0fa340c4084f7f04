package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"sports-prediction/internal/auth"
	"sports-prediction/internal/config"
	"sports-prediction/internal/currency"
	"sports-prediction/internal/database"
	"sports-prediction/internal/handlers"
	"sports-prediction/internal/jobs"
	"sports-prediction/internal/repository"
	"sports-prediction/internal/services"
	"sports-prediction/internal/sportsdata"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Apply configured fee defaults
	if pct, err := decimal.NewFromString(cfg.Fees.PlatformFeePct); err == nil {
		services.DefaultPlatformFeePct = pct
	} else {
		log.Printf("Warning: invalid PLATFORM_FEE_PCT %q, using built-in default", cfg.Fees.PlatformFeePct)
	}
	if pct, err := decimal.NewFromString(cfg.Fees.CreatorRewardPct); err == nil {
		services.DefaultCreatorRewardPct = pct
	} else {
		log.Printf("Warning: invalid CREATOR_REWARD_PCT %q, using built-in default", cfg.Fees.CreatorRewardPct)
	}

	startingBalance := services.DefaultStartingBalance
	if parsed, err := currency.Parse(cfg.App.StartingBalance); err == nil {
		startingBalance = parsed
	} else {
		log.Printf("Warning: invalid STARTING_BALANCE %q, using built-in default", cfg.App.StartingBalance)
	}

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())

	// Initialize services
	ledger := services.NewTransactionService(repo)
	settings := services.NewSettingsService(repo)
	calculator := services.NewWinningsCalculator()
	users := services.NewUserService(repo, ledger, startingBalance)
	markets := services.NewMarketService(repo, settings, ledger, calculator)

	// Sports results feed
	feed := sportsdata.NewClient(cfg.Sports.BaseURL, cfg.Sports.APIKey)
	if cfg.Sports.APIKey == "" {
		log.Println("Warning: SPORTS_API_KEY not set, feed requests will be unauthenticated")
	}

	// Service account that owns feed-seeded markets and carries platform fees
	serviceAccount, err := users.EnsureServiceAccount(context.Background(), "sportsbot", "markets@sports-prediction.local")
	if err != nil {
		log.Fatalf("Failed to ensure service account: %v", err)
	}
	resolution := services.NewResolutionService(repo, calculator, ledger, serviceAccount.ID)
	seeder := services.NewMarketSeederService(repo, markets, feed, serviceAccount.ID)

	// Background jobs
	batchSize := 50
	if parsed, err := strconv.Atoi(cfg.Jobs.ResolutionBatch); err == nil && parsed > 0 {
		batchSize = parsed
	}

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	runner := jobs.NewRunner(jobCtx)
	resolverJob := jobs.NewMarketResolver(repo, resolution, markets, feed, batchSize)
	if _, err := runner.Add(cfg.Jobs.ResolutionSchedule, resolverJob.Run); err != nil {
		log.Fatalf("Failed to schedule market resolver: %v", err)
	}
	seederJob := jobs.NewMarketSeeder(seeder)
	if _, err := runner.Add("@every 6h", seederJob.Run); err != nil {
		log.Fatalf("Failed to schedule market seeder: %v", err)
	}
	runner.Start()

	// Initialize handlers
	handlers.InitValidator()
	authHandler := handlers.NewAuthHandler(users)
	userHandler := handlers.NewUserHandler(users, ledger)
	marketHandler := handlers.NewMarketHandler(markets, resolution, ledger)
	adminHandler := handlers.NewAdminHandler(settings, markets, users, ledger)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	// Add additional frontend URL from environment if provided
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public market routes
	router.GET("/api/markets", marketHandler.GetMarkets)
	router.GET("/api/markets/:id", marketHandler.GetMarketByID)
	router.GET("/api/markets/:id/participants", marketHandler.GetParticipants)
	router.GET("/api/markets/:id/potential-winnings", marketHandler.GetPotentialWinnings)
	router.GET("/api/markets/:id/settlement-preview", marketHandler.GetSettlementPreview)
	router.GET("/api/markets/:id/transactions", marketHandler.GetMarketTransactions)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// User endpoints
		api.GET("/users/me/balance", userHandler.GetBalance)
		api.GET("/users/me/transactions", userHandler.GetTransactions)

		// Market endpoints (protected)
		api.POST("/markets", marketHandler.CreateMarket)
		api.POST("/markets/:id/join", marketHandler.JoinMarket)
		api.POST("/markets/:id/leave", marketHandler.LeaveMarket)
		api.POST("/markets/:id/resolve", marketHandler.ResolveMarket)
		api.GET("/markets/:id/can-resolve", marketHandler.CanResolve)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.AdminMiddleware())
	{
		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings", adminHandler.UpdateSetting)
		admin.POST("/markets/:id/cancel", adminHandler.CancelMarket)
		admin.POST("/users/:id/deposit", adminHandler.Deposit)
		admin.POST("/transactions/batch", adminHandler.CreateTransactionBatch)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancel in-flight jobs, then wait for the scheduler to drain
	cancelJobs()
	runner.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
