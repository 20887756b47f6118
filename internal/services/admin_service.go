package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
)

// adminService serves platform-wide administrative reads.
type adminService struct {
	db     *gorm.DB
	ledger LedgerServicer
}

// NewAdminService creates a new AdminServicer.
func NewAdminService(db *gorm.DB, ledger LedgerServicer) AdminServicer {
	return &adminService{db: db, ledger: ledger}
}

// Stats aggregates the panel counters.
func (s *adminService) Stats() (*AdminStats, error) {
	stats := &AdminStats{}

	counts := []struct {
		dest  *int64
		model interface{}
		query func(*gorm.DB) *gorm.DB
	}{
		{&stats.TotalUsers, &models.User{}, func(q *gorm.DB) *gorm.DB { return q }},
		{&stats.ActiveInvestments, &models.Investment{}, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.InvestmentActive)
		}},
		{&stats.PendingWithdrawals, &models.WithdrawalRequest{}, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.WithdrawalPending)
		}},
		{&stats.PendingDeposits, &models.DepositRequest{}, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.DepositPending)
		}},
		{&stats.PendingLoans, &models.LoanRequest{}, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.LoanPending)
		}},
		{&stats.PendingRegistrations, &models.RegistrationRequest{}, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.RegistrationPending)
		}},
	}
	for _, c := range counts {
		if err := c.query(s.db.Model(c.model)).Count(c.dest).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return stats, nil
}

// RecentTransactions returns the newest ledger entries across all accounts.
func (s *adminService) RecentTransactions(limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var txs []models.Transaction
	if err := s.db.Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txs, nil
}

// UserDetail returns one account with its balances and workflow history.
func (s *adminService) UserDetail(userID uint) (*UserDetail, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance, err := s.ledger.CurrentBalance(userID)
	if err != nil {
		return nil, err
	}
	available, err := s.ledger.AvailableBalance(nil, userID)
	if err != nil {
		return nil, err
	}

	detail := &UserDetail{
		User:             user,
		CurrentBalance:   balance,
		AvailableBalance: available,
	}

	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").
		Find(&detail.Investments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").
		Find(&detail.Withdrawals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").
		Find(&detail.Deposits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").
		Find(&detail.Loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return detail, nil
}
