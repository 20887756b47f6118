package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/notifier"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
	"github.com/Fidiestro/sanse-backend/internal/refid"
)

// Default monthly rates applied at approval. Borrowers with investment
// history get the preferential rate.
const (
	loanRateInvestor = 4.0
	loanRateDefault  = 6.0
)

// loanService owns loan requests, the credit-scoring heuristic and
// repayment.
type loanService struct {
	db       *gorm.DB
	ledger   LedgerServicer
	referral ReferralServicer
	notify   notifier.Notifier
	audit    AuditServicer
}

// NewLoanService creates a new LoanServicer.
func NewLoanService(db *gorm.DB, ledger LedgerServicer, referral ReferralServicer, notify notifier.Notifier, audit AuditServicer) LoanServicer {
	return &loanService{db: db, ledger: ledger, referral: referral, notify: notify, audit: audit}
}

func capped(points, cap int) int {
	if points > cap {
		return cap
	}
	return points
}

// Score computes the credit score fresh from account history. Never cached:
// two consecutive reads may differ only if the history changed in between.
func (s *loanService) Score(userID uint) (*CreditScore, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	result := &CreditScore{Factors: make([]ScoreFactor, 0, 6)}

	// Account age: 15 points per month, cap 150.
	months := int(now.Sub(user.CreatedAt).Hours() / (24 * 30))
	agePts := capped(months*15, 150)
	result.Factors = append(result.Factors, ScoreFactor{
		Name: "account_age", Points: agePts,
		Detail: fmt.Sprintf("%d months active", months),
	})

	// Lifetime deposits: 20 points per 500,000, cap 200.
	var deposited int64
	if err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ?", userID, models.TransactionDeposit).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&deposited).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	depositPts := capped(int(deposited/500_000)*20, 200)
	result.Factors = append(result.Factors, ScoreFactor{
		Name: "lifetime_deposits", Points: depositPts,
		Detail: fmt.Sprintf("$%d COP deposited", deposited),
	})

	// Investments: 50 per active + 30 per completed, cap 200.
	var active, completed int64
	if err := s.db.Model(&models.Investment{}).
		Where("user_id = ? AND status = ?", userID, models.InvestmentActive).
		Count(&active).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Investment{}).
		Where("user_id = ? AND status = ?", userID, models.InvestmentCompleted).
		Count(&completed).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	invPts := capped(int(active)*50+int(completed)*30, 200)
	result.Factors = append(result.Factors, ScoreFactor{
		Name: "investments", Points: invPts,
		Detail: fmt.Sprintf("%d active, %d completed", active, completed),
	})

	// Loan history: 80 per paid − 100 per overdue, floor 0, cap 250.
	var paid, overdue int64
	if err := s.db.Model(&models.LoanRequest{}).
		Where("user_id = ? AND status = ?", userID, models.LoanPaid).
		Count(&paid).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.LoanRequest{}).
		Where("user_id = ? AND status = ?", userID, models.LoanOverdue).
		Count(&overdue).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	loanPts := int(paid)*80 - int(overdue)*100
	if loanPts < 0 {
		loanPts = 0
	}
	loanPts = capped(loanPts, 250)
	result.Factors = append(result.Factors, ScoreFactor{
		Name: "loan_history", Points: loanPts,
		Detail: fmt.Sprintf("%d paid, %d overdue", paid, overdue),
	})

	// Recent activity: 10 points per transaction in the last 90 days, cap 100.
	var recent int64
	if err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND created_at >= ?", userID, now.AddDate(0, 0, -90)).
		Count(&recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	activityPts := capped(int(recent)*10, 100)
	result.Factors = append(result.Factors, ScoreFactor{
		Name: "recent_activity", Points: activityPts,
		Detail: fmt.Sprintf("%d transactions in 90 days", recent),
	})

	// Current balance: 20 points per 1,000,000, cap 100.
	balance, err := s.ledger.CurrentBalance(userID)
	if err != nil {
		return nil, err
	}
	balancePts := capped(int(balance/1_000_000)*20, 100)
	result.Factors = append(result.Factors, ScoreFactor{
		Name: "current_balance", Points: balancePts,
		Detail: fmt.Sprintf("$%d COP", balance),
	})

	score := agePts + depositPts + invPts + loanPts + activityPts + balancePts
	if score > 1000 {
		score = 1000
	}
	result.Score = score
	result.Tier = scoreTier(score)
	result.AirdropMultiplier = float64(score) / 1000 * 5

	return result, nil
}

func scoreTier(score int) string {
	switch {
	case score >= 800:
		return "Platinum"
	case score >= 600:
		return "Gold"
	case score >= 400:
		return "Silver"
	case score >= 200:
		return "Bronze"
	default:
		return "Initial"
	}
}

// Request opens a loan application. One open application per account.
func (s *loanService) Request(userID uint, amount int64, termMonths int, purpose string) (*models.LoanRequest, error) {
	if amount < models.LoanMinAmount || amount > models.LoanMaxAmount {
		return nil, apperrors.ErrLoanAmount
	}
	if !models.ValidLoanTerm(termMonths) {
		return nil, apperrors.ErrInvalidTerm
	}

	score, err := s.Score(userID)
	if err != nil {
		return nil, err
	}
	if score.Score < models.LoanScoreFloor {
		return nil, apperrors.WithMessage(apperrors.ErrScoreTooLow,
			fmt.Sprintf("Credit score %d is below the minimum of %d", score.Score, models.LoanScoreFloor))
	}

	var loan *models.LoanRequest
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.LoanRequest{}).
			Where("user_id = ? AND status IN ?", userID,
				[]models.LoanStatus{models.LoanPending, models.LoanActive}).
			Count(&open).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if open > 0 {
			return apperrors.ErrLoanOpen
		}

		loan = &models.LoanRequest{
			UserID:         userID,
			Amount:         amount,
			TermMonths:     termMonths,
			Purpose:        purpose,
			Status:         models.LoanPending,
			ScoreAtRequest: score.Score,
			RefID:          refid.New(refid.PrefixLoan),
		}
		if err := tx.Create(loan).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(userID, "request_loan", "loan_request", loan.ID,
		fmt.Sprintf("amount=%d term=%d score=%d", amount, termMonths, score.Score))
	s.notify.Notify(context.Background(),
		fmt.Sprintf("New loan request %s: $%d COP over %d months (user %d, score %d)",
			loan.RefID, amount, termMonths, userID, score.Score))
	return loan, nil
}

// ListMy returns the user's loan requests, newest first.
func (s *loanService) ListMy(userID uint) ([]models.LoanRequest, error) {
	var loans []models.LoanRequest
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return loans, nil
}

// ListByStatus returns loan requests for admin review.
func (s *loanService) ListByStatus(status *models.LoanStatus, page pagination.PageRequest) (*pagination.PageResponse[models.LoanRequest], error) {
	page.Defaults()

	query := s.db.Model(&models.LoanRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var loans []models.LoanRequest
	if err := query.Order("created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(loans, page.Page, page.PageSize, total)
	return &resp, nil
}

// hasEverInvested reports whether the user has ever held any investment.
func hasEverInvested(tx *gorm.DB, userID uint) (bool, error) {
	var n int64
	if err := tx.Model(&models.Investment{}).
		Where("user_id = ?", userID).
		Count(&n).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n > 0, nil
}

// Process advances a loan request. Approval disburses: it writes the loan
// credit and re-derives the borrower's balance atomically.
func (s *loanService) Process(adminID, loanID uint, action string, approvedAmount *int64, notes string) (*models.LoanRequest, error) {
	now := time.Now()
	var loan models.LoanRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrLoanNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		switch action {
		case "approve":
			if loan.Status != models.LoanPending {
				return apperrors.ErrInvalidTransition
			}
			amount := loan.Amount
			if approvedAmount != nil {
				if *approvedAmount < models.LoanMinAmount || *approvedAmount > models.LoanMaxAmount {
					return apperrors.ErrLoanAmount
				}
				amount = *approvedAmount
			}

			invested, err := hasEverInvested(tx, loan.UserID)
			if err != nil {
				return err
			}
			rate := loanRateDefault
			if invested {
				rate = loanRateInvestor
			}

			due := now.AddDate(0, loan.TermMonths, 0)
			loan.Status = models.LoanActive
			loan.ApprovedAmount = &amount
			loan.ApprovedRate = &rate
			loan.OutstandingDebt = amount
			loan.StartDate = &now
			loan.DueDate = &due
			loan.AdminNotes = notes
			loan.ProcessedAt = &now
			loan.ProcessedBy = &adminID
			if err := tx.Save(&loan).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			entry := &models.Transaction{
				UserID:      loan.UserID,
				Type:        models.TransactionLoan,
				Amount:      amount,
				Description: fmt.Sprintf("Loan %s disbursed at %.1f%% monthly", loan.RefID, rate),
				RefID:       refid.New(refid.PrefixLoanTx),
			}
			if err := tx.Create(entry).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if _, err := s.ledger.RecalculateBalance(tx, loan.UserID); err != nil {
				return err
			}

		case "reject":
			if loan.Status != models.LoanPending {
				return apperrors.ErrInvalidTransition
			}
			loan.Status = models.LoanRejected
			loan.AdminNotes = notes
			loan.ProcessedAt = &now
			loan.ProcessedBy = &adminID
			if err := tx.Save(&loan).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

		case "mark_paid":
			if loan.Status != models.LoanActive && loan.Status != models.LoanOverdue {
				return apperrors.ErrInvalidTransition
			}
			loan.Status = models.LoanPaid
			loan.OutstandingDebt = 0
			loan.AdminNotes = notes
			loan.ProcessedAt = &now
			loan.ProcessedBy = &adminID
			if err := tx.Save(&loan).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

		case "mark_overdue":
			if loan.Status != models.LoanActive {
				return apperrors.ErrInvalidTransition
			}
			loan.Status = models.LoanOverdue
			loan.AdminNotes = notes
			loan.ProcessedAt = &now
			loan.ProcessedBy = &adminID
			if err := tx.Save(&loan).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

		default:
			return apperrors.ErrInvalidInput
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(adminID, "process_loan", "loan_request", loanID,
		fmt.Sprintf("action=%s user=%d", action, loan.UserID))
	s.notify.Notify(context.Background(),
		fmt.Sprintf("Loan %s %s (user %d)", loan.RefID, loan.Status, loan.UserID))
	return &loan, nil
}

// Pay applies a repayment to an open loan. A payment always debits the payer
// for the full amount; the interest portion feeds the referral cascade.
func (s *loanService) Pay(userID, loanID uint, amount int64) (*models.LoanRequest, error) {
	if amount < models.LoanMinPayment {
		return nil, apperrors.ErrBelowMinimumPayment
	}

	var loan models.LoanRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", loanID, userID).First(&loan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrLoanNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if loan.Status != models.LoanActive && loan.Status != models.LoanOverdue {
			return apperrors.ErrLoanNotActive
		}

		available, err := s.ledger.AvailableBalance(tx, userID)
		if err != nil {
			return err
		}
		if amount > available {
			return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
				fmt.Sprintf("Insufficient available balance. Available: $%d COP", available))
		}

		principal := loan.Amount
		rate := 0.0
		if loan.ApprovedAmount != nil {
			principal = *loan.ApprovedAmount
		}
		if loan.ApprovedRate != nil {
			rate = *loan.ApprovedRate
		}

		monthlyInterest := int64(math.Round(float64(principal) * rate / 100))
		interestPortion := amount
		if monthlyInterest < interestPortion {
			interestPortion = monthlyInterest
		}

		entry := &models.Transaction{
			UserID:      userID,
			Type:        models.TransactionWithdraw,
			Amount:      amount,
			Description: fmt.Sprintf("Loan %s payment", loan.RefID),
			RefID:       refid.New(refid.PrefixLoanPayment),
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		loan.OutstandingDebt -= amount
		if loan.OutstandingDebt <= 0 {
			loan.OutstandingDebt = 0
			loan.Status = models.LoanPaid
		}
		if err := tx.Model(&loan).Updates(map[string]interface{}{
			"outstanding_debt": loan.OutstandingDebt,
			"status":           loan.Status,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if interestPortion > 0 {
			if _, err := s.referral.Cascade(tx, userID, models.CommissionFromLoanInterest, interestPortion); err != nil {
				return err
			}
		}

		_, err = s.ledger.RecalculateBalance(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(userID, "pay_loan", "loan_request", loanID,
		fmt.Sprintf("amount=%d remaining=%d", amount, loan.OutstandingDebt))
	return &loan, nil
}
