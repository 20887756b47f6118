package services

import (
	"gorm.io/gorm"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
)

// dashboardService aggregates the account overview.
type dashboardService struct {
	db          *gorm.DB
	ledger      LedgerServicer
	investments InvestmentServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB, ledger LedgerServicer, investments InvestmentServicer) DashboardServicer {
	return &dashboardService{db: db, ledger: ledger, investments: investments}
}

// Summary builds the account overview in one call.
func (s *dashboardService) Summary(userID uint) (*DashboardSummary, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, apperrors.ErrUserNotFound
	}

	balance, err := s.ledger.CurrentBalance(userID)
	if err != nil {
		return nil, err
	}
	available, err := s.ledger.AvailableBalance(nil, userID)
	if err != nil {
		return nil, err
	}
	invSummary, err := s.investments.Summary(userID)
	if err != nil {
		return nil, err
	}

	var pendingDeposits int64
	if err := s.db.Model(&models.DepositRequest{}).
		Where("user_id = ? AND status = ?", userID, models.DepositPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&pendingDeposits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var reserved int64
	if err := s.db.Model(&models.WithdrawalRequest{}).
		Where("user_id = ? AND status IN ?", userID,
			[]models.WithdrawalStatus{models.WithdrawalPending, models.WithdrawalApproved}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&reserved).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var recent []models.Transaction
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(10).
		Find(&recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &DashboardSummary{
		CurrentBalance:   balance,
		AvailableBalance: available,
		MonthlyGoal:      user.MonthlyGoal,
		Investments:      *invSummary,
		PendingDeposits:  pendingDeposits,
		ReservedOutflows: reserved,
		RecentActivity:   recent,
	}, nil
}
