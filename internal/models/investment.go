package models

import "time"

// InvestmentStatus is the lifecycle state of an investment position.
type InvestmentStatus string

const (
	InvestmentPendingDeposit InvestmentStatus = "pending_deposit"
	InvestmentActive         InvestmentStatus = "active"
	InvestmentCompleted      InvestmentStatus = "completed"
	InvestmentCancelled      InvestmentStatus = "cancelled"
)

// GraceWindow is how long a pending_deposit investment stays confirmable
// before it is treated as active when read. Promotion is lazy: no background
// job flips the status, readers derive it via EffectiveStatus.
const GraceWindow = 12 * time.Hour

// MaxOpenInvestments caps how many non-terminal positions a user may hold.
const MaxOpenInvestments = 3

// Investment is a fixed-term position in an investment product.
type Investment struct {
	Base
	UserID         uint             `gorm:"not null;index" json:"user_id"`
	ProductID      string           `gorm:"not null" json:"product_id"`
	Amount         int64            `gorm:"type:bigint;not null" json:"amount"`
	MinMonthlyRate float64          `gorm:"not null" json:"min_monthly_rate"`
	MaxMonthlyRate float64          `gorm:"not null" json:"max_monthly_rate"`
	StartDate      time.Time        `gorm:"not null" json:"start_date"`
	EndDate        time.Time        `gorm:"not null" json:"end_date"`
	LockEndDate    time.Time        `gorm:"not null" json:"lock_end_date"`
	Status         InvestmentStatus `gorm:"not null;index" json:"status"`
	Notes          string           `json:"notes,omitempty"`

	Returns []InvestmentReturn `gorm:"foreignKey:InvestmentID" json:"returns,omitempty"`
}

// EffectiveStatus returns the status as of now, applying the lazy grace
// promotion: a pending_deposit position older than the grace window reads as
// active. Completion only ever happens through an explicit withdrawal. The
// stored row is untouched; read and mutate paths persist the promotion
// explicitly.
func (i *Investment) EffectiveStatus(now time.Time) InvestmentStatus {
	if i.Status == InvestmentPendingDeposit && now.Sub(i.CreatedAt) > GraceWindow {
		return InvestmentActive
	}
	return i.Status
}

// IsOpen reports whether the effective status counts against the open
// position limit and the available-balance subtraction.
func (i *Investment) IsOpen(now time.Time) bool {
	s := i.EffectiveStatus(now)
	return s == InvestmentPendingDeposit || s == InvestmentActive
}

// IsLocked reports whether capital withdrawal from the position is still
// blocked by the lock period.
func (i *Investment) IsLocked(now time.Time) bool {
	return now.Before(i.LockEndDate)
}
