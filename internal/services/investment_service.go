package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/refid"
)

// investmentService drives the investment lifecycle state machine.
type investmentService struct {
	db       *gorm.DB
	ledger   LedgerServicer
	referral ReferralServicer
	audit    AuditServicer
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(db *gorm.DB, ledger LedgerServicer, referral ReferralServicer, audit AuditServicer) InvestmentServicer {
	return &investmentService{db: db, ledger: ledger, referral: referral, audit: audit}
}

// Products returns the available product catalog.
func (s *investmentService) Products() []models.Product {
	return models.Products
}

// promote persists the lazy grace promotion on the given handle. Every read
// and mutate path applies it before looking at the status.
func promote(tx *gorm.DB, inv *models.Investment, now time.Time) error {
	effective := inv.EffectiveStatus(now)
	if effective == inv.Status {
		return nil
	}
	inv.Status = effective
	if err := tx.Model(inv).Update("status", effective).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// getOwned loads an investment belonging to userID and applies the grace
// promotion.
func (s *investmentService) getOwned(tx *gorm.DB, userID, investmentID uint, now time.Time) (*models.Investment, error) {
	var inv models.Investment
	if err := tx.Where("id = ? AND user_id = ?", investmentID, userID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvestmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := promote(tx, &inv, now); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create opens a new position in pending_deposit, funded from the available
// balance. The principal is not a ledger movement; it reduces available
// balance through the open-position subtraction only.
func (s *investmentService) Create(userID uint, productID string, amount int64) (*models.Investment, error) {
	product := models.ProductByID(productID)
	if product == nil {
		return nil, apperrors.ErrProductNotAvailable
	}
	if amount < product.MinAmount {
		return nil, apperrors.WithMessage(apperrors.ErrBelowMinimumAmount,
			fmt.Sprintf("Minimum investment is $%d COP", product.MinAmount))
	}

	now := time.Now()
	var inv *models.Investment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.Investment{}).
			Where("user_id = ? AND status IN ?", userID,
				[]models.InvestmentStatus{models.InvestmentPendingDeposit, models.InvestmentActive}).
			Count(&open).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if open >= models.MaxOpenInvestments {
			return apperrors.ErrInvestmentLimit
		}

		available, err := s.ledger.AvailableBalance(tx, userID)
		if err != nil {
			return err
		}
		if amount > available {
			return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
				fmt.Sprintf("Insufficient available balance. Available: $%d COP", available))
		}

		endDate := now.AddDate(0, product.TermMonths, 0)
		lockEnd := now.AddDate(0, product.LockMonths, 0)
		inv = &models.Investment{
			UserID:         userID,
			ProductID:      product.ID,
			Amount:         amount,
			MinMonthlyRate: product.MinMonthlyRate,
			MaxMonthlyRate: product.MaxMonthlyRate,
			StartDate:      now,
			EndDate:        endDate,
			LockEndDate:    lockEnd,
			Status:         models.InvestmentPendingDeposit,
			Notes:          fmt.Sprintf("Unlocks %s", lockEnd.Format("2006-01-02")),
		}
		if err := tx.Create(inv).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		entry := &models.Transaction{
			UserID:       userID,
			InvestmentID: &inv.ID,
			Type:         models.TransactionInvestment,
			Amount:       amount,
			Description:  fmt.Sprintf("%s investment. Unlocks %s", product.Name, lockEnd.Format("2006-01-02")),
			RefID:        refid.New(refid.PrefixInvestment),
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(userID, "create_investment", "investment", inv.ID,
		fmt.Sprintf("product=%s amount=%d", productID, amount))
	return inv, nil
}

// Confirm activates a position still inside the grace window.
func (s *investmentService) Confirm(userID, investmentID uint) (*models.Investment, error) {
	now := time.Now()
	var inv *models.Investment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.getOwned(tx, userID, investmentID, now)
		if err != nil {
			return err
		}
		switch inv.Status {
		case models.InvestmentPendingDeposit:
		case models.InvestmentActive:
			// Promotion already happened, lazily or otherwise.
			return apperrors.ErrInvestmentStale
		default:
			return apperrors.ErrInvalidTransition
		}
		inv.Status = models.InvestmentActive
		if err := tx.Model(inv).Update("status", models.InvestmentActive).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(userID, "confirm_investment", "investment", investmentID, "")
	return inv, nil
}

// Cancel removes a position still inside the grace window. The row and its
// ledger entries are deleted outright: a cancelled-in-grace investment never
// happened.
func (s *investmentService) Cancel(userID, investmentID uint) error {
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := s.getOwned(tx, userID, investmentID, now)
		if err != nil {
			return err
		}
		switch inv.Status {
		case models.InvestmentPendingDeposit:
		case models.InvestmentActive:
			return apperrors.ErrInvestmentStale
		default:
			return apperrors.ErrInvalidTransition
		}

		if err := tx.Where("investment_id = ?", investmentID).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Investment{}, investmentID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err = s.ledger.RecalculateBalance(tx, userID)
		return err
	})
	if err != nil {
		return err
	}

	s.audit.Log(userID, "cancel_investment", "investment", investmentID, "")
	return nil
}

// AddCapital tops up an active position. The lock end date never moves: the
// top-up settles on the original maturity date.
func (s *investmentService) AddCapital(userID, investmentID uint, amount int64) (*models.Investment, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidInput
	}
	now := time.Now()
	var inv *models.Investment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.getOwned(tx, userID, investmentID, now)
		if err != nil {
			return err
		}
		if inv.Status != models.InvestmentActive {
			return apperrors.ErrInvestmentNotActive
		}
		if !now.Before(inv.LockEndDate) {
			return apperrors.ErrInvalidTransition
		}

		available, err := s.ledger.AvailableBalance(tx, userID)
		if err != nil {
			return err
		}
		if amount > available {
			return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
				fmt.Sprintf("Insufficient available balance. Available: $%d COP", available))
		}

		inv.Amount += amount
		if err := tx.Model(inv).Update("amount", inv.Amount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		entry := &models.Transaction{
			UserID:       userID,
			InvestmentID: &inv.ID,
			Type:         models.TransactionInvestment,
			Amount:       amount,
			Description:  "Investment top-up",
			RefID:        refid.New(refid.PrefixInvestment),
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(userID, "add_capital", "investment", investmentID,
		fmt.Sprintf("amount=%d", amount))
	return inv, nil
}

// Withdraw closes a matured position, moving the principal back into the
// cash ledger.
func (s *investmentService) Withdraw(userID, investmentID uint) (*models.Investment, error) {
	now := time.Now()
	var inv *models.Investment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.getOwned(tx, userID, investmentID, now)
		if err != nil {
			return err
		}
		if inv.Status != models.InvestmentActive {
			return apperrors.ErrInvestmentNotActive
		}
		if inv.IsLocked(now) {
			return apperrors.WithMessage(apperrors.ErrInvestmentLocked,
				fmt.Sprintf("Capital unlocks on %s", inv.LockEndDate.Format("2006-01-02")))
		}

		inv.Status = models.InvestmentCompleted
		if err := tx.Model(inv).Update("status", models.InvestmentCompleted).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		entry := &models.Transaction{
			UserID:       userID,
			InvestmentID: &inv.ID,
			Type:         models.TransactionInvestmentWithdrawal,
			Amount:       inv.Amount,
			Description:  "Matured investment capital withdrawal",
			RefID:        refid.New(refid.PrefixInvestmentWithdraw),
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		_, err = s.ledger.RecalculateBalance(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(userID, "withdraw_investment", "investment", investmentID,
		fmt.Sprintf("amount=%d", inv.Amount))
	return inv, nil
}

// PostMonthlyReturn credits one month's profit on an active position. The
// gross amount is rounded at each derivation step; if the investor has a
// referrer the 5% commission is netted out of the investor's credit and
// cascaded to the referrer.
func (s *investmentService) PostMonthlyReturn(adminID, investmentID uint, periodMonth string, rate float64) (*models.InvestmentReturn, error) {
	if rate < 0 || rate > 100 {
		return nil, apperrors.ErrInvalidRate
	}
	if _, err := time.Parse(models.PeriodMonthLayout, periodMonth); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Period must be formatted YYYY-MM")
	}

	now := time.Now()
	var ret *models.InvestmentReturn

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.Investment
		if err := tx.First(&inv, investmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrInvestmentNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := promote(tx, &inv, now); err != nil {
			return err
		}
		if inv.Status != models.InvestmentActive {
			return apperrors.ErrInvestmentNotActive
		}

		var existing int64
		if err := tx.Model(&models.InvestmentReturn{}).
			Where("investment_id = ? AND period_month = ?", investmentID, periodMonth).
			Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if existing > 0 {
			return apperrors.ErrDuplicateReturnPeriod
		}

		var user models.User
		if err := tx.First(&user, inv.UserID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		gross := int64(math.Round(float64(inv.Amount) * rate / 100))
		net := gross
		if user.ReferredBy != nil {
			commission := int64(math.Round(float64(gross) * models.CommissionRate))
			net = gross - commission
		}

		ret = &models.InvestmentReturn{
			InvestmentID: investmentID,
			UserID:       inv.UserID,
			PeriodMonth:  periodMonth,
			RateApplied:  rate,
			GrossAmount:  gross,
			NetAmount:    net,
			Status:       models.ReturnPaid,
		}
		if err := tx.Create(ret).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		entry := &models.Transaction{
			UserID:       inv.UserID,
			InvestmentID: &inv.ID,
			Type:         models.TransactionInvestmentReturn,
			Amount:       net,
			Description:  fmt.Sprintf("Monthly return %s at %.2f%%", periodMonth, rate),
			RefID:        refid.New(refid.PrefixInvestmentReturn),
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if _, err := s.referral.Cascade(tx, inv.UserID, models.CommissionFromInvestmentReturn, gross); err != nil {
			return err
		}

		_, err := s.ledger.RecalculateBalance(tx, inv.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(adminID, "post_monthly_return", "investment", investmentID,
		fmt.Sprintf("period=%s rate=%.2f gross=%d net=%d", periodMonth, rate, ret.GrossAmount, ret.NetAmount))
	return ret, nil
}

// ListMy returns the user's positions with their returns, newest first, with
// the grace promotion applied.
func (s *investmentService) ListMy(userID uint) ([]models.Investment, error) {
	now := time.Now()
	var invs []models.Investment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Returns").
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Find(&invs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range invs {
			if err := promote(tx, &invs[i], now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invs, nil
}

// Get returns one position with returns, owned by the user.
func (s *investmentService) Get(userID, investmentID uint) (*models.Investment, error) {
	now := time.Now()
	var inv models.Investment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Returns").
			Where("id = ? AND user_id = ?", investmentID, userID).
			First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrInvestmentNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return promote(tx, &inv, now)
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Summary aggregates the user's positions.
func (s *investmentService) Summary(userID uint) (*InvestmentSummary, error) {
	var invs []models.Investment
	if err := s.db.Where("user_id = ?", userID).Find(&invs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	sum := &InvestmentSummary{}
	for i := range invs {
		switch invs[i].EffectiveStatus(now) {
		case models.InvestmentPendingDeposit, models.InvestmentActive:
			sum.TotalInvested += invs[i].Amount
			sum.OpenPositions++
		default:
			sum.ClosedPositions++
		}
	}

	var earned int64
	if err := s.db.Model(&models.InvestmentReturn{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(net_amount), 0)").
		Scan(&earned).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	sum.TotalEarned = earned
	return sum, nil
}

// DeleteInvestment removes a position and its ledger entries outright and
// re-derives the owner's balance. Administrative repair tool.
func (s *investmentService) DeleteInvestment(adminID, investmentID uint) error {
	var inv models.Investment
	if err := s.db.First(&inv, investmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvestmentNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("investment_id = ?", investmentID).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("investment_id = ?", investmentID).
			Delete(&models.InvestmentReturn{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Investment{}, investmentID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err := s.ledger.RecalculateBalance(tx, inv.UserID)
		return err
	})
	if err != nil {
		return err
	}

	s.audit.Log(adminID, "delete_investment", "investment", investmentID,
		fmt.Sprintf("user=%d amount=%d", inv.UserID, inv.Amount))
	return nil
}
