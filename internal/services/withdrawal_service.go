package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/notifier"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
	"github.com/Fidiestro/sanse-backend/internal/refid"
)

// withdrawalService owns payment methods and the withdrawal request
// workflow. The ledger is only debited at settlement; until then requested
// amounts reserve funds against the available balance.
type withdrawalService struct {
	db     *gorm.DB
	ledger LedgerServicer
	notify notifier.Notifier
	audit  AuditServicer
}

// NewWithdrawalService creates a new WithdrawalServicer.
func NewWithdrawalService(db *gorm.DB, ledger LedgerServicer, notify notifier.Notifier, audit AuditServicer) WithdrawalServicer {
	return &withdrawalService{db: db, ledger: ledger, notify: notify, audit: audit}
}

// EstimateCompletion returns the advisory completion estimate for a
// withdrawal of the given amount. Not enforced anywhere.
func EstimateCompletion(amount int64) string {
	if amount <= models.WithdrawalMonthlyCap {
		return "≤24h"
	}
	return "30 days"
}

// monthStart returns the first instant of the calendar month containing t.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddPaymentMethod registers a payout destination. The first method becomes
// the default.
func (s *withdrawalService) AddPaymentMethod(userID uint, m *models.PaymentMethod) (*models.PaymentMethod, error) {
	if m.HolderName == "" || m.HolderDocument == "" {
		return nil, apperrors.ErrInvalidInput
	}
	switch m.Type {
	case models.PaymentMethodNequi, models.PaymentMethodDaviplata:
		if m.Phone == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "A phone number is required for this method")
		}
	case models.PaymentMethodBankAccount:
		if m.AccountNumber == "" || m.BankName == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Bank name and account number are required")
		}
	default:
		return nil, apperrors.ErrInvalidInput
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.PaymentMethod{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Count(&active).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if active >= models.MaxPaymentMethods {
			return apperrors.ErrPaymentMethodLimit
		}

		m.UserID = userID
		m.IsActive = true
		if active == 0 {
			m.IsDefault = true
		} else if m.IsDefault {
			if err := tx.Model(&models.PaymentMethod{}).
				Where("user_id = ?", userID).
				Update("is_default", false).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if err := tx.Create(m).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListPaymentMethods returns the user's active payout destinations.
func (s *withdrawalService) ListPaymentMethods(userID uint) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_default DESC, created_at ASC").
		Find(&methods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return methods, nil
}

// SetDefaultPaymentMethod marks one method as the default destination.
func (s *withdrawalService) SetDefaultPaymentMethod(userID, methodID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var m models.PaymentMethod
		if err := tx.Where("id = ? AND user_id = ? AND is_active = ?", methodID, userID, true).
			First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPaymentMethodNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.PaymentMethod{}).
			Where("user_id = ?", userID).
			Update("is_default", false).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&m).Update("is_default", true).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// DeletePaymentMethod removes a payout destination. Methods referenced by a
// non-terminal withdrawal cannot be removed; methods referenced only by
// settled history are deactivated instead of deleted to keep the trail.
func (s *withdrawalService) DeletePaymentMethod(userID, methodID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var m models.PaymentMethod
		if err := tx.Where("id = ? AND user_id = ? AND is_active = ?", methodID, userID, true).
			First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPaymentMethodNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var open int64
		if err := tx.Model(&models.WithdrawalRequest{}).
			Where("payment_method_id = ? AND status IN ?", methodID,
				[]models.WithdrawalStatus{models.WithdrawalPending, models.WithdrawalApproved}).
			Count(&open).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if open > 0 {
			return apperrors.ErrPaymentMethodInUse
		}

		var referenced int64
		if err := tx.Model(&models.WithdrawalRequest{}).
			Where("payment_method_id = ?", methodID).
			Count(&referenced).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if referenced > 0 {
			if err := tx.Model(&m).Updates(map[string]interface{}{
				"is_active":  false,
				"is_default": false,
			}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		} else {
			if err := tx.Delete(&m).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if m.IsDefault {
			var next models.PaymentMethod
			err := tx.Where("user_id = ? AND is_active = ?", userID, true).
				Order("created_at ASC").
				First(&next).Error
			if err == nil {
				if err := tx.Model(&next).Update("is_default", true).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}

// Request opens a withdrawal request. Funds stay in the ledger until an
// administrator settles the request; the amount is reserved against the
// available balance from this point on.
func (s *withdrawalService) Request(userID, methodID uint, amount int64) (*models.WithdrawalRequest, error) {
	if amount < models.WithdrawalMinAmount {
		return nil, apperrors.WithMessage(apperrors.ErrBelowMinimumAmount,
			fmt.Sprintf("Minimum withdrawal is $%d COP", models.WithdrawalMinAmount))
	}

	now := time.Now()
	var req *models.WithdrawalRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var method models.PaymentMethod
		if err := tx.Where("id = ? AND user_id = ? AND is_active = ?", methodID, userID, true).
			First(&method).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPaymentMethodNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		available, err := s.ledger.AvailableBalance(tx, userID)
		if err != nil {
			return err
		}
		if amount > available {
			return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
				fmt.Sprintf("Insufficient available balance. Available: $%d COP", available))
		}

		var monthUsed int64
		if err := tx.Model(&models.WithdrawalRequest{}).
			Where("user_id = ? AND status IN ? AND created_at >= ?", userID,
				[]models.WithdrawalStatus{models.WithdrawalPending, models.WithdrawalApproved, models.WithdrawalCompleted},
				monthStart(now)).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&monthUsed).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if monthUsed+amount > models.WithdrawalMonthlyCap {
			return apperrors.WithMessage(apperrors.ErrMonthlyLimit,
				fmt.Sprintf("Monthly withdrawal limit is $%d COP; $%d COP already used this month",
					models.WithdrawalMonthlyCap, monthUsed))
		}

		req = &models.WithdrawalRequest{
			UserID:              userID,
			PaymentMethodID:     methodID,
			Amount:              amount,
			Status:              models.WithdrawalPending,
			EstimatedCompletion: EstimateCompletion(amount),
			RefID:               refid.New(refid.PrefixWithdrawal),
		}
		if err := tx.Create(req).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(userID, "request_withdrawal", "withdrawal_request", req.ID,
		fmt.Sprintf("amount=%d", amount))
	s.notify.Notify(context.Background(),
		fmt.Sprintf("New withdrawal request %s: $%d COP (user %d)", req.RefID, amount, userID))
	return req, nil
}

// ListMy returns the user's withdrawal requests, newest first.
func (s *withdrawalService) ListMy(userID uint) ([]models.WithdrawalRequest, error) {
	var reqs []models.WithdrawalRequest
	if err := s.db.Preload("PaymentMethod").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reqs, nil
}

// ListByStatus returns withdrawal requests for admin review.
func (s *withdrawalService) ListByStatus(status *models.WithdrawalStatus, page pagination.PageRequest) (*pagination.PageResponse[models.WithdrawalRequest], error) {
	page.Defaults()

	query := s.db.Model(&models.WithdrawalRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var reqs []models.WithdrawalRequest
	if err := query.Preload("PaymentMethod").
		Order("created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&reqs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(reqs, page.Page, page.PageSize, total)
	return &resp, nil
}

// Process advances a withdrawal request. Only the approved→completed
// transition touches the ledger: it writes the withdraw entry and re-derives
// the balance in the same transaction.
func (s *withdrawalService) Process(adminID, requestID uint, action, notes string) (*models.WithdrawalRequest, error) {
	now := time.Now()
	var req models.WithdrawalRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrWithdrawalNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var next models.WithdrawalStatus
		switch action {
		case "approve":
			if req.Status != models.WithdrawalPending {
				return apperrors.ErrInvalidTransition
			}
			next = models.WithdrawalApproved
		case "reject":
			if req.Status != models.WithdrawalPending && req.Status != models.WithdrawalApproved {
				return apperrors.ErrInvalidTransition
			}
			next = models.WithdrawalRejected
		case "complete":
			if req.Status != models.WithdrawalApproved {
				return apperrors.ErrInvalidTransition
			}
			next = models.WithdrawalCompleted
		default:
			return apperrors.ErrInvalidInput
		}

		req.Status = next
		req.AdminNotes = notes
		req.ProcessedAt = &now
		req.ProcessedBy = &adminID
		if err := tx.Model(&req).Updates(map[string]interface{}{
			"status":       next,
			"admin_notes":  notes,
			"processed_at": now,
			"processed_by": adminID,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if next == models.WithdrawalCompleted {
			entry := &models.Transaction{
				UserID:      req.UserID,
				Type:        models.TransactionWithdraw,
				Amount:      req.Amount,
				Description: fmt.Sprintf("Withdrawal %s settled", req.RefID),
				RefID:       refid.New(refid.PrefixWithdrawalTx),
			}
			if err := tx.Create(entry).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if _, err := s.ledger.RecalculateBalance(tx, req.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(adminID, "process_withdrawal", "withdrawal_request", requestID,
		fmt.Sprintf("action=%s amount=%d user=%d", action, req.Amount, req.UserID))
	s.notify.Notify(context.Background(),
		fmt.Sprintf("Withdrawal %s %s (user %d, $%d COP)", req.RefID, req.Status, req.UserID, req.Amount))
	return &req, nil
}
