package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
)

// UserServicer defines the contract for user and registration business logic.
type UserServicer interface {
	Register(email, password, fullName, phone, document, referralCode string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateProfile(userID uint, fullName, phone string) (*models.User, error)
	ChangePassword(userID uint, currentPassword, newPassword string) error
	SetMonthlyGoal(userID uint, goal int64) error
	ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	SetUserStatus(adminID, userID uint, status models.UserStatus) error
	ListRegistrations(status *models.RegistrationStatus, page pagination.PageRequest) (*pagination.PageResponse[models.RegistrationRequest], error)
	ProcessRegistration(adminID, requestID uint, approve bool, notes string) (*models.RegistrationRequest, error)
}

// TransactionFilter holds optional filter parameters for listing ledger entries.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
}

// LedgerServicer defines the contract for the derived-balance engine. All
// balances are derived from the append-only transaction log; snapshots are a
// cache keyed by (user, day) and are always re-derivable.
type LedgerServicer interface {
	// RecalculateBalance re-derives the balance from the log on the given
	// handle (use the surrounding transaction) and upserts today's snapshot.
	RecalculateBalance(tx *gorm.DB, userID uint) (int64, error)
	RecalculateAll() (int, error)
	CurrentBalance(userID uint) (int64, error)
	// AvailableBalance is the single available-funds formula consumed by
	// every workflow: current balance minus open investment principal minus
	// reserved withdrawal amounts.
	AvailableBalance(tx *gorm.DB, userID uint) (int64, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	BalanceHistory(userID uint, days int) ([]models.BalanceSnapshot, error)
	CreateManualTransaction(adminID, userID uint, txType models.TransactionType, amount int64, description string) (*models.Transaction, error)
	DeleteTransaction(adminID, transactionID uint) error
}

// InvestmentSummary aggregates a user's positions for the dashboard.
type InvestmentSummary struct {
	TotalInvested   int64 `json:"total_invested"`
	TotalEarned     int64 `json:"total_earned"`
	OpenPositions   int   `json:"open_positions"`
	ClosedPositions int   `json:"closed_positions"`
}

// InvestmentServicer defines the contract for the investment lifecycle.
type InvestmentServicer interface {
	Products() []models.Product
	Create(userID uint, productID string, amount int64) (*models.Investment, error)
	Confirm(userID, investmentID uint) (*models.Investment, error)
	Cancel(userID, investmentID uint) error
	AddCapital(userID, investmentID uint, amount int64) (*models.Investment, error)
	Withdraw(userID, investmentID uint) (*models.Investment, error)
	PostMonthlyReturn(adminID, investmentID uint, periodMonth string, rate float64) (*models.InvestmentReturn, error)
	ListMy(userID uint) ([]models.Investment, error)
	Get(userID, investmentID uint) (*models.Investment, error)
	Summary(userID uint) (*InvestmentSummary, error)
	DeleteInvestment(adminID, investmentID uint) error
}

// WithdrawalServicer defines the contract for payment methods and the
// withdrawal request workflow.
type WithdrawalServicer interface {
	AddPaymentMethod(userID uint, m *models.PaymentMethod) (*models.PaymentMethod, error)
	ListPaymentMethods(userID uint) ([]models.PaymentMethod, error)
	SetDefaultPaymentMethod(userID, methodID uint) error
	DeletePaymentMethod(userID, methodID uint) error
	Request(userID, methodID uint, amount int64) (*models.WithdrawalRequest, error)
	ListMy(userID uint) ([]models.WithdrawalRequest, error)
	ListByStatus(status *models.WithdrawalStatus, page pagination.PageRequest) (*pagination.PageResponse[models.WithdrawalRequest], error)
	Process(adminID, requestID uint, action, notes string) (*models.WithdrawalRequest, error)
}

// DepositServicer defines the contract for the deposit request workflow.
type DepositServicer interface {
	Request(userID uint, amount int64, method, proofImage, note string) (*models.DepositRequest, error)
	ListMy(userID uint) ([]models.DepositRequest, error)
	ListByStatus(status *models.DepositStatus, page pagination.PageRequest) (*pagination.PageResponse[models.DepositRequest], error)
	Process(adminID, requestID uint, action, notes string) (*models.DepositRequest, error)
}

// ScoreFactor is one component of a credit score with its contribution.
type ScoreFactor struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Detail string `json:"detail"`
}

// CreditScore is the full scoring result, recomputed fresh on every read.
type CreditScore struct {
	Score             int           `json:"score"`
	Tier              string        `json:"tier"`
	AirdropMultiplier float64       `json:"airdrop_multiplier"`
	Factors           []ScoreFactor `json:"factors"`
}

// LoanServicer defines the contract for loan requests and repayment.
type LoanServicer interface {
	Score(userID uint) (*CreditScore, error)
	Request(userID uint, amount int64, termMonths int, purpose string) (*models.LoanRequest, error)
	ListMy(userID uint) ([]models.LoanRequest, error)
	ListByStatus(status *models.LoanStatus, page pagination.PageRequest) (*pagination.PageResponse[models.LoanRequest], error)
	Process(adminID, loanID uint, action string, approvedAmount *int64, notes string) (*models.LoanRequest, error)
	Pay(userID, loanID uint, amount int64) (*models.LoanRequest, error)
}

// ReferralSummary is the "my referrals" view.
type ReferralSummary struct {
	Code             string           `json:"code"`
	TotalReferred    int              `json:"total_referred"`
	TotalCommissions int64            `json:"total_commissions"`
	Referred         []ReferredDetail `json:"referred"`
}

// ReferredDetail is one referred account's activity flags.
type ReferredDetail struct {
	FullName     string    `json:"full_name"`
	JoinedAt     time.Time `json:"joined_at"`
	HasInvested  bool      `json:"has_invested"`
	HasDeposited bool      `json:"has_deposited"`
	Commissions  int64     `json:"commissions"`
}

// ReferralServicer defines the contract for the commission cascade. Cascade
// is only ever invoked from other services (return posting, loan repayment),
// never from request handlers.
type ReferralServicer interface {
	// Cascade posts a 5% commission on baseAmount to the referrer of
	// referredID, if any. Returns the commission amount, or 0 when no
	// referrer exists or the commission falls below the posting threshold.
	Cascade(tx *gorm.DB, referredID uint, source models.CommissionSource, baseAmount int64) (int64, error)
	MySummary(userID uint) (*ReferralSummary, error)
}

// DashboardSummary aggregates the account overview.
type DashboardSummary struct {
	CurrentBalance   int64                `json:"current_balance"`
	AvailableBalance int64                `json:"available_balance"`
	MonthlyGoal      int64                `json:"monthly_goal"`
	Investments      InvestmentSummary    `json:"investments"`
	PendingDeposits  int64                `json:"pending_deposits"`
	ReservedOutflows int64                `json:"reserved_outflows"`
	RecentActivity   []models.Transaction `json:"recent_activity"`
}

// DashboardServicer defines the contract for the account overview.
type DashboardServicer interface {
	Summary(userID uint) (*DashboardSummary, error)
}

// AdminStats aggregates platform-wide figures for the admin panel.
type AdminStats struct {
	TotalUsers           int64 `json:"total_users"`
	ActiveInvestments    int64 `json:"active_investments"`
	PendingWithdrawals   int64 `json:"pending_withdrawals"`
	PendingDeposits      int64 `json:"pending_deposits"`
	PendingLoans         int64 `json:"pending_loans"`
	PendingRegistrations int64 `json:"pending_registrations"`
}

// AdminServicer defines the contract for platform-wide administrative reads.
type AdminServicer interface {
	Stats() (*AdminStats, error)
	RecentTransactions(limit int) ([]models.Transaction, error)
	UserDetail(userID uint) (*UserDetail, error)
}

// UserDetail is the admin view of one account.
type UserDetail struct {
	User             models.User                `json:"user"`
	CurrentBalance   int64                      `json:"current_balance"`
	AvailableBalance int64                      `json:"available_balance"`
	Investments      []models.Investment        `json:"investments"`
	Withdrawals      []models.WithdrawalRequest `json:"withdrawals"`
	Deposits         []models.DepositRequest    `json:"deposits"`
	Loans            []models.LoanRequest       `json:"loans"`
}

// AuditServicer defines the contract for audit logging. Failures are
// swallowed and logged; auditing must never fail the audited operation.
type AuditServicer interface {
	Log(actorID uint, action, entityType string, entityID uint, detail string)
}
