package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/refid"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with a hashed password, a unique
// email and a unique referral code.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, nil)
}

// CreateTestReferredUser creates a user referred by the given referrer.
func CreateTestReferredUser(t *testing.T, db *gorm.DB, referrerID uint) *models.User {
	t.Helper()
	return createUser(t, db, &referrerID)
}

// CreateTestAdmin creates a user with the admin role.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	admin := createUser(t, db, nil)
	admin.Role = models.RoleAdmin
	if err := db.Save(admin).Error; err != nil {
		t.Fatalf("failed to promote test admin: %v", err)
	}
	return admin
}

func createUser(t *testing.T, db *gorm.DB, referredBy *uint) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Email:        fmt.Sprintf("user%d@test.com", n),
		Password:     string(hash),
		FullName:     fmt.Sprintf("Test User %d", n),
		Role:         models.RoleUser,
		Status:       models.UserStatusActive,
		ReferralCode: fmt.Sprintf("SC-TST%03d", n),
		ReferredBy:   referredBy,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates a ledger entry of the given type and amount.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID uint, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID: userID,
		Type:   txType,
		Amount: amount,
		RefID:  refid.New(refid.PrefixTransaction),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestInvestment creates a position in the default product with the
// given status.
func CreateTestInvestment(t *testing.T, db *gorm.DB, userID uint, amount int64, status models.InvestmentStatus) *models.Investment {
	t.Helper()

	now := time.Now()
	inv := &models.Investment{
		UserID:         userID,
		ProductID:      "sdtc_6m",
		Amount:         amount,
		MinMonthlyRate: 2.0,
		MaxMonthlyRate: 4.0,
		StartDate:      now,
		EndDate:        now.AddDate(0, 6, 0),
		LockEndDate:    now.AddDate(0, 6, 0),
		Status:         status,
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	return inv
}

// AgeInvestment backdates a position's creation time, for exercising the
// grace window and lock period.
func AgeInvestment(t *testing.T, db *gorm.DB, inv *models.Investment, age time.Duration) {
	t.Helper()

	createdAt := time.Now().Add(-age)
	if err := db.Model(inv).UpdateColumn("created_at", createdAt).Error; err != nil {
		t.Fatalf("failed to age test investment: %v", err)
	}
	inv.CreatedAt = createdAt
}

// UnlockInvestment moves a position's lock end date into the past.
func UnlockInvestment(t *testing.T, db *gorm.DB, inv *models.Investment) {
	t.Helper()

	lockEnd := time.Now().Add(-time.Hour)
	if err := db.Model(inv).UpdateColumn("lock_end_date", lockEnd).Error; err != nil {
		t.Fatalf("failed to unlock test investment: %v", err)
	}
	inv.LockEndDate = lockEnd
}

// CreateTestPaymentMethod creates an active Nequi payout destination.
func CreateTestPaymentMethod(t *testing.T, db *gorm.DB, userID uint) *models.PaymentMethod {
	t.Helper()

	n := nextID()
	method := &models.PaymentMethod{
		UserID:         userID,
		Type:           models.PaymentMethodNequi,
		Label:          fmt.Sprintf("Test Method %d", n),
		Phone:          fmt.Sprintf("30000000%02d", n%100),
		HolderName:     "Test Holder",
		HolderDocument: fmt.Sprintf("CC%d", n),
		IsDefault:      true,
		IsActive:       true,
	}
	if err := db.Create(method).Error; err != nil {
		t.Fatalf("failed to create test payment method: %v", err)
	}
	return method
}

// CreateTestActiveLoan creates an approved loan with outstanding debt.
func CreateTestActiveLoan(t *testing.T, db *gorm.DB, userID uint, amount int64, rate float64) *models.LoanRequest {
	t.Helper()

	now := time.Now()
	due := now.AddDate(0, 3, 0)
	loan := &models.LoanRequest{
		UserID:          userID,
		Amount:          amount,
		TermMonths:      3,
		Status:          models.LoanActive,
		ScoreAtRequest:  400,
		ApprovedAmount:  &amount,
		ApprovedRate:    &rate,
		OutstandingDebt: amount,
		StartDate:       &now,
		DueDate:         &due,
		RefID:           refid.New(refid.PrefixLoan),
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}
	return loan
}
