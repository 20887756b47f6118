package services

import (
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/refid"
)

// referralService posts commissions to referrers when a referred account
// produces a qualifying earning.
type referralService struct {
	db     *gorm.DB
	ledger LedgerServicer
}

// NewReferralService creates a new ReferralServicer.
func NewReferralService(db *gorm.DB, ledger LedgerServicer) ReferralServicer {
	return &referralService{db: db, ledger: ledger}
}

// Cascade posts round(baseAmount * 5%) to the referrer of referredID, if
// any. Commissions under the posting threshold are dropped to avoid
// micro-noise in the ledger. Runs on the caller's transaction handle; the
// caller owns atomicity with the event that produced the earning.
func (s *referralService) Cascade(tx *gorm.DB, referredID uint, source models.CommissionSource, baseAmount int64) (int64, error) {
	var referred models.User
	if err := tx.First(&referred, referredID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrUserNotFound
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if referred.ReferredBy == nil {
		return 0, nil
	}

	commission := int64(math.Round(float64(baseAmount) * models.CommissionRate))
	if commission < models.CommissionThreshold {
		return 0, nil
	}

	referrerID := *referred.ReferredBy
	entry := &models.Transaction{
		UserID:      referrerID,
		Type:        models.TransactionProfit,
		Amount:      commission,
		Description: fmt.Sprintf("Referral commission (%s) from %s", source, referred.FullName),
		RefID:       refid.New(refid.PrefixReferral),
	}
	if err := tx.Create(entry).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	record := &models.ReferralCommission{
		ReferrerID:    referrerID,
		ReferredID:    referredID,
		Source:        source,
		BaseAmount:    baseAmount,
		Amount:        commission,
		TransactionID: entry.ID,
	}
	if err := tx.Create(record).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if _, err := s.ledger.RecalculateBalance(tx, referrerID); err != nil {
		return 0, err
	}
	return commission, nil
}

// MySummary returns the user's referral code, referred accounts and the
// commissions they have produced.
func (s *referralService) MySummary(userID uint) (*ReferralSummary, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var referred []models.User
	if err := s.db.Where("referred_by = ?", userID).
		Order("created_at DESC").
		Find(&referred).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &ReferralSummary{
		Code:     user.ReferralCode,
		Referred: make([]ReferredDetail, 0, len(referred)),
	}

	for i := range referred {
		r := &referred[i]

		var invested int64
		if err := s.db.Model(&models.Investment{}).
			Where("user_id = ?", r.ID).
			Count(&invested).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var deposited int64
		if err := s.db.Model(&models.Transaction{}).
			Where("user_id = ? AND type = ?", r.ID, models.TransactionDeposit).
			Count(&deposited).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var commissions int64
		if err := s.db.Model(&models.ReferralCommission{}).
			Where("referrer_id = ? AND referred_id = ?", userID, r.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&commissions).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		summary.Referred = append(summary.Referred, ReferredDetail{
			FullName:     r.FullName,
			JoinedAt:     r.CreatedAt,
			HasInvested:  invested > 0,
			HasDeposited: deposited > 0,
			Commissions:  commissions,
		})
		summary.TotalCommissions += commissions
	}
	summary.TotalReferred = len(referred)

	return summary, nil
}
