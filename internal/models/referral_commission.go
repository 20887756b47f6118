package models

import "time"

// Referral commission parameters.
const (
	CommissionRate      = 0.05
	CommissionThreshold int64 = 100
)

// CommissionSource classifies what earning produced a commission.
type CommissionSource string

const (
	CommissionFromInvestmentReturn CommissionSource = "investment_return"
	CommissionFromLoanInterest     CommissionSource = "loan_interest"
)

// ReferralCommission records one commission credited to a referrer. Rows are
// immutable; the paired ledger entry carries the actual credit.
type ReferralCommission struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	ReferrerID    uint             `gorm:"not null;index" json:"referrer_id"`
	ReferredID    uint             `gorm:"not null;index" json:"referred_id"`
	Source        CommissionSource `gorm:"not null" json:"source"`
	BaseAmount    int64            `gorm:"type:bigint;not null" json:"base_amount"`
	Amount        int64            `gorm:"type:bigint;not null" json:"amount"`
	TransactionID uint             `gorm:"not null" json:"transaction_id"`
	CreatedAt     time.Time        `json:"created_at"`
}
