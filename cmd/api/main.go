package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Fidiestro/sanse-backend/internal/config"
	"github.com/Fidiestro/sanse-backend/internal/database"
	"github.com/Fidiestro/sanse-backend/internal/handlers"
	"github.com/Fidiestro/sanse-backend/internal/logger"
	"github.com/Fidiestro/sanse-backend/internal/middleware"
	"github.com/Fidiestro/sanse-backend/internal/notifier"
	"github.com/Fidiestro/sanse-backend/internal/services"
	appvalidator "github.com/Fidiestro/sanse-backend/internal/validator"

	_ "github.com/Fidiestro/sanse-backend/internal/docs" // Import swagger docs
)

// @title           Sanse API
// @version         1.0
// @description     Sanse is a savings and investment platform with derived balances, fixed-term investments, loans and a referral program.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	appvalidator.Register()

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig())
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	notify := notifier.NewFromConfig(appConfig)
	auditService := services.NewAuditService(db)
	ledgerService := services.NewLedgerService(db, auditService)
	referralService := services.NewReferralService(db, ledgerService)
	investmentService := services.NewInvestmentService(db, ledgerService, referralService, auditService)
	withdrawalService := services.NewWithdrawalService(db, ledgerService, notify, auditService)
	depositService := services.NewDepositService(db, ledgerService, notify, auditService)
	loanService := services.NewLoanService(db, ledgerService, referralService, notify, auditService)
	userService := services.NewUserService(db, notify, auditService)
	dashboardService := services.NewDashboardService(db, ledgerService, investmentService)
	adminService := services.NewAdminService(db, ledgerService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	transactionHandler := handlers.NewTransactionHandler(ledgerService)
	investmentHandler := handlers.NewInvestmentHandler(investmentService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	depositHandler := handlers.NewDepositHandler(depositService)
	loanHandler := handlers.NewLoanHandler(loanService)
	referralHandler := handlers.NewReferralHandler(referralService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	adminHandler := handlers.NewAdminHandler(adminService, userService, ledgerService, investmentService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	v1.GET("/investments/products", investmentHandler.Products)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	users := protected.Group("/users")
	users.GET("/me", userHandler.Me)
	users.PATCH("/me", userHandler.UpdateProfile)
	users.POST("/me/password", userHandler.ChangePassword)
	users.PUT("/me/goal", userHandler.SetMonthlyGoal)

	// Ledger routes
	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.List)
	transactions.GET("/balance", transactionHandler.Balance)
	transactions.GET("/history", transactionHandler.History)

	// Investment routes
	investments := protected.Group("/investments")
	investments.POST("", investmentHandler.Create)
	investments.GET("", investmentHandler.List)
	investments.GET("/:id", investmentHandler.Get)
	investments.POST("/:id/confirm", investmentHandler.Confirm)
	investments.DELETE("/:id", investmentHandler.Cancel)
	investments.POST("/:id/capital", investmentHandler.AddCapital)
	investments.POST("/:id/withdraw", investmentHandler.Withdraw)

	// Payment method routes
	methods := protected.Group("/payment-methods")
	methods.POST("", withdrawalHandler.AddPaymentMethod)
	methods.GET("", withdrawalHandler.ListPaymentMethods)
	methods.PUT("/:id/default", withdrawalHandler.SetDefaultPaymentMethod)
	methods.DELETE("/:id", withdrawalHandler.DeletePaymentMethod)

	// Withdrawal routes
	withdrawals := protected.Group("/withdrawals")
	withdrawals.POST("", withdrawalHandler.Request)
	withdrawals.GET("", withdrawalHandler.List)

	// Deposit routes
	deposits := protected.Group("/deposits")
	deposits.POST("", depositHandler.Request)
	deposits.GET("", depositHandler.List)

	// Loan routes
	loans := protected.Group("/loans")
	loans.GET("/score", loanHandler.Score)
	loans.POST("", loanHandler.Request)
	loans.GET("", loanHandler.List)
	loans.POST("/:id/pay", loanHandler.Pay)

	// Referral and dashboard routes
	protected.GET("/referrals", referralHandler.Summary)
	protected.GET("/dashboard", dashboardHandler.Summary)

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:id", adminHandler.UserDetail)
	admin.PUT("/users/:id/status", adminHandler.SetUserStatus)
	admin.GET("/registrations", adminHandler.ListRegistrations)
	admin.POST("/registrations/:id", adminHandler.ProcessRegistration)
	admin.GET("/transactions/recent", adminHandler.RecentTransactions)
	admin.POST("/transactions", adminHandler.CreateTransaction)
	admin.DELETE("/transactions/:id", adminHandler.DeleteTransaction)
	admin.POST("/balances/recalculate", adminHandler.RecalculateAll)
	admin.GET("/withdrawals", withdrawalHandler.AdminList)
	admin.POST("/withdrawals/:id", withdrawalHandler.Process)
	admin.GET("/deposits", depositHandler.AdminList)
	admin.POST("/deposits/:id", depositHandler.Process)
	admin.GET("/loans", loanHandler.AdminList)
	admin.POST("/loans/:id", loanHandler.Process)
	admin.POST("/investments/:id/returns", investmentHandler.PostReturn)
	admin.DELETE("/investments/:id", adminHandler.DeleteInvestment)

	log.Infof("Starting Sanse backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
