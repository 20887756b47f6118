package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Fidiestro/sanse-backend/internal/handlers"
	"github.com/Fidiestro/sanse-backend/internal/logger"
	"github.com/Fidiestro/sanse-backend/internal/middleware"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/notifier"
	"github.com/Fidiestro/sanse-backend/internal/services"
	"github.com/Fidiestro/sanse-backend/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Transaction{},
		&models.BalanceSnapshot{},
		&models.Investment{},
		&models.InvestmentReturn{},
		&models.PaymentMethod{},
		&models.WithdrawalRequest{},
		&models.DepositRequest{},
		&models.LoanRequest{},
		&models.ReferralCommission{},
		&models.RegistrationRequest{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	notify := notifier.Noop{}

	// Services
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

	// Handlers
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

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	v1.GET("/investments/products", investmentHandler.Products)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	users := protected.Group("/users")
	users.GET("/me", userHandler.Me)
	users.PATCH("/me", userHandler.UpdateProfile)
	users.POST("/me/password", userHandler.ChangePassword)
	users.PUT("/me/goal", userHandler.SetMonthlyGoal)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.List)
	transactions.GET("/balance", transactionHandler.Balance)
	transactions.GET("/history", transactionHandler.History)

	investments := protected.Group("/investments")
	investments.POST("", investmentHandler.Create)
	investments.GET("", investmentHandler.List)
	investments.GET("/:id", investmentHandler.Get)
	investments.POST("/:id/confirm", investmentHandler.Confirm)
	investments.DELETE("/:id", investmentHandler.Cancel)
	investments.POST("/:id/capital", investmentHandler.AddCapital)
	investments.POST("/:id/withdraw", investmentHandler.Withdraw)

	methods := protected.Group("/payment-methods")
	methods.POST("", withdrawalHandler.AddPaymentMethod)
	methods.GET("", withdrawalHandler.ListPaymentMethods)
	methods.PUT("/:id/default", withdrawalHandler.SetDefaultPaymentMethod)
	methods.DELETE("/:id", withdrawalHandler.DeletePaymentMethod)

	withdrawals := protected.Group("/withdrawals")
	withdrawals.POST("", withdrawalHandler.Request)
	withdrawals.GET("", withdrawalHandler.List)

	deposits := protected.Group("/deposits")
	deposits.POST("", depositHandler.Request)
	deposits.GET("", depositHandler.List)

	loans := protected.Group("/loans")
	loans.GET("/score", loanHandler.Score)
	loans.POST("", loanHandler.Request)
	loans.GET("", loanHandler.List)
	loans.POST("/:id/pay", loanHandler.Pay)

	protected.GET("/referrals", referralHandler.Summary)
	protected.GET("/dashboard", dashboardHandler.Summary)

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

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"full_name":"Test User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), user["id"].(float64)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// registerAdmin registers a user, promotes it to admin directly in the
// database and logs in again so the token carries the admin role.
func (app *testApp) registerAdmin(t *testing.T, email, password string) (accessToken string) {
	t.Helper()

	app.registerUser(t, email, password)
	if err := app.DB.Model(&models.User{}).
		Where("email = ?", email).
		Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote admin: %v", err)
	}
	token, _ := app.loginUser(t, email, password)
	return token
}

// fundUser credits a user's ledger through the admin manual transaction
// endpoint and returns once the balance is derived.
func (app *testApp) fundUser(t *testing.T, adminToken string, userID float64, amount int64) {
	t.Helper()

	body := fmt.Sprintf(`{"user_id":%d,"type":"deposit","amount":%d,"description":"test funding"}`, int(userID), amount)
	rec := app.request("POST", "/api/v1/admin/transactions", body, adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("funding failed: %d %s", rec.Code, rec.Body.String())
	}
}
