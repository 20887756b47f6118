package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
	"github.com/Fidiestro/sanse-backend/internal/refid"
)

// ledgerService derives balances from the append-only transaction log.
type ledgerService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB, audit AuditServicer) LedgerServicer {
	return &ledgerService{db: db, audit: audit}
}

// sumTransactions totals the amounts of the given types for one user.
func sumTransactions(tx *gorm.DB, userID uint, types []models.TransactionType) (int64, error) {
	var total int64
	err := tx.Model(&models.Transaction{}).
		Where("user_id = ? AND type IN ?", userID, types).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// RecalculateBalance re-derives the user's balance from the transaction log
// and upserts today's snapshot. It runs entirely on the handle it is given,
// so callers inside a transaction get atomicity with their own writes.
// Idempotent: with no intervening log changes, a second call stores the same
// value.
func (s *ledgerService) RecalculateBalance(tx *gorm.DB, userID uint) (int64, error) {
	credits, err := sumTransactions(tx, userID, models.CreditTypes)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	debits, err := sumTransactions(tx, userID, models.DebitTypes)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance := credits - debits
	if balance < 0 {
		// The ledger never reports negative cash.
		balance = 0
	}

	snap := models.BalanceSnapshot{
		UserID:       userID,
		Amount:       balance,
		SnapshotDate: time.Now().Format(models.SnapshotDateLayout),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&snap).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return balance, nil
}

// RecalculateAll re-derives every account that appears in the log. Returns
// the number of accounts recalculated.
func (s *ledgerService) RecalculateAll() (int, error) {
	var userIDs []uint
	if err := s.db.Model(&models.Transaction{}).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range userIDs {
			if _, err := s.RecalculateBalance(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(userIDs), nil
}

// CurrentBalance returns the most recent snapshot, deriving from the log when
// no snapshot exists yet.
func (s *ledgerService) CurrentBalance(userID uint) (int64, error) {
	return s.currentBalance(s.db, userID)
}

func (s *ledgerService) currentBalance(tx *gorm.DB, userID uint) (int64, error) {
	var snap models.BalanceSnapshot
	err := tx.Where("user_id = ?", userID).
		Order("snapshot_date DESC").
		First(&snap).Error
	if err == nil {
		return snap.Amount, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// No snapshot yet: derive without persisting.
	credits, err := sumTransactions(tx, userID, models.CreditTypes)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	debits, err := sumTransactions(tx, userID, models.DebitTypes)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if credits < debits {
		return 0, nil
	}
	return credits - debits, nil
}

// AvailableBalance is the one available-funds formula used by every
// workflow: current balance minus principal of open investments minus
// amounts reserved by pending or approved withdrawal requests.
func (s *ledgerService) AvailableBalance(tx *gorm.DB, userID uint) (int64, error) {
	if tx == nil {
		tx = s.db
	}

	balance, err := s.currentBalance(tx, userID)
	if err != nil {
		return 0, err
	}

	// Open positions include stale pending_deposit rows whose stored status
	// has not been promoted yet, so filter on the stored statuses and let
	// both count: the grace promotion never moves a position out of the
	// open set.
	var invested int64
	if err := tx.Model(&models.Investment{}).
		Where("user_id = ? AND status IN ?", userID,
			[]models.InvestmentStatus{models.InvestmentPendingDeposit, models.InvestmentActive}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&invested).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var reserved int64
	if err := tx.Model(&models.WithdrawalRequest{}).
		Where("user_id = ? AND status IN ?", userID,
			[]models.WithdrawalStatus{models.WithdrawalPending, models.WithdrawalApproved}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&reserved).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return balance - invested - reserved, nil
}

// GetUserTransactions lists the user's ledger entries, newest first.
func (s *ledgerService) GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	query := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txs []models.Transaction
	if err := query.Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(txs, page.Page, page.PageSize, total)
	return &resp, nil
}

// BalanceHistory returns the user's snapshots for the last N days, oldest
// first.
func (s *ledgerService) BalanceHistory(userID uint, days int) ([]models.BalanceSnapshot, error) {
	if days <= 0 {
		days = 30
	}
	from := time.Now().AddDate(0, 0, -days).Format(models.SnapshotDateLayout)

	var snaps []models.BalanceSnapshot
	if err := s.db.Where("user_id = ? AND snapshot_date >= ?", userID, from).
		Order("snapshot_date ASC").
		Find(&snaps).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return snaps, nil
}

// CreateManualTransaction lets an administrator append an arbitrary ledger
// entry and re-derives the owner's balance atomically with the write.
func (s *ledgerService) CreateManualTransaction(adminID, userID uint, txType models.TransactionType, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidInput
	}
	switch txType {
	case models.TransactionDeposit, models.TransactionWithdraw, models.TransactionPayment,
		models.TransactionInterest, models.TransactionProfit, models.TransactionLoan,
		models.TransactionInvestmentReturn, models.TransactionInvestmentWithdrawal:
	default:
		return nil, apperrors.ErrInvalidTransaction
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entry := &models.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Description: description,
		RefID:       refid.New(refid.PrefixTransaction),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err := s.RecalculateBalance(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(adminID, "create_manual_transaction", "transaction", entry.ID,
		fmt.Sprintf("type=%s amount=%d user=%d", txType, amount, userID))
	return entry, nil
}

// DeleteTransaction is the only sanctioned mutation of the log: an explicit
// administrative deletion, which must re-derive the owner's balance in the
// same transaction.
func (s *ledgerService) DeleteTransaction(adminID, transactionID uint) error {
	var entry models.Transaction
	if err := s.db.First(&entry, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTransactionNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Transaction{}, transactionID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err := s.RecalculateBalance(tx, entry.UserID)
		return err
	})
	if err != nil {
		return err
	}

	s.audit.Log(adminID, "delete_transaction", "transaction", transactionID,
		fmt.Sprintf("type=%s amount=%d user=%d ref=%s", entry.Type, entry.Amount, entry.UserID, entry.RefID))
	return nil
}
