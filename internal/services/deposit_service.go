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

// depositService owns the deposit request workflow. Funds only enter the
// ledger when an administrator approves the request against its proof.
type depositService struct {
	db     *gorm.DB
	ledger LedgerServicer
	notify notifier.Notifier
	audit  AuditServicer
}

// NewDepositService creates a new DepositServicer.
func NewDepositService(db *gorm.DB, ledger LedgerServicer, notify notifier.Notifier, audit AuditServicer) DepositServicer {
	return &depositService{db: db, ledger: ledger, notify: notify, audit: audit}
}

// Request opens a deposit claim backed by a payment proof.
func (s *depositService) Request(userID uint, amount int64, method, proofImage, note string) (*models.DepositRequest, error) {
	if amount < models.DepositMinAmount {
		return nil, apperrors.WithMessage(apperrors.ErrBelowMinimumAmount,
			fmt.Sprintf("Minimum deposit is $%d COP", models.DepositMinAmount))
	}
	if proofImage == "" {
		return nil, apperrors.ErrProofRequired
	}

	var req *models.DepositRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var pending int64
		if err := tx.Model(&models.DepositRequest{}).
			Where("user_id = ? AND status = ?", userID, models.DepositPending).
			Count(&pending).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if pending >= models.MaxPendingDeposits {
			return apperrors.ErrPendingDeposits
		}

		req = &models.DepositRequest{
			UserID:     userID,
			Amount:     amount,
			Method:     method,
			ProofImage: proofImage,
			Note:       note,
			Status:     models.DepositPending,
			RefID:      refid.New(refid.PrefixDeposit),
		}
		if err := tx.Create(req).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(userID, "request_deposit", "deposit_request", req.ID,
		fmt.Sprintf("amount=%d", amount))
	s.notify.Notify(context.Background(),
		fmt.Sprintf("New deposit request %s: $%d COP (user %d)", req.RefID, amount, userID))
	return req, nil
}

// ListMy returns the user's deposit requests, newest first.
func (s *depositService) ListMy(userID uint) ([]models.DepositRequest, error) {
	var reqs []models.DepositRequest
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reqs, nil
}

// ListByStatus returns deposit requests for admin review.
func (s *depositService) ListByStatus(status *models.DepositStatus, page pagination.PageRequest) (*pagination.PageResponse[models.DepositRequest], error) {
	page.Defaults()

	query := s.db.Model(&models.DepositRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var reqs []models.DepositRequest
	if err := query.Order("created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&reqs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(reqs, page.Page, page.PageSize, total)
	return &resp, nil
}

// Process resolves a pending deposit claim. Approval is the transition that
// writes the deposit ledger entry and re-derives the balance.
func (s *depositService) Process(adminID, requestID uint, action, notes string) (*models.DepositRequest, error) {
	now := time.Now()
	var req models.DepositRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrDepositNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if req.Status != models.DepositPending {
			return apperrors.ErrAlreadyProcessed
		}

		var next models.DepositStatus
		switch action {
		case "approve":
			next = models.DepositApproved
		case "reject":
			next = models.DepositRejected
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

		if next == models.DepositApproved {
			entry := &models.Transaction{
				UserID:      req.UserID,
				Type:        models.TransactionDeposit,
				Amount:      req.Amount,
				Description: fmt.Sprintf("Deposit %s approved", req.RefID),
				RefID:       refid.New(refid.PrefixDepositTx),
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

	s.audit.Log(adminID, "process_deposit", "deposit_request", requestID,
		fmt.Sprintf("action=%s amount=%d user=%d", action, req.Amount, req.UserID))
	s.notify.Notify(context.Background(),
		fmt.Sprintf("Deposit %s %s (user %d, $%d COP)", req.RefID, req.Status, req.UserID, req.Amount))
	return &req, nil
}
