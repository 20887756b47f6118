package models

// PeriodMonthLayout is the calendar-month key format for investment returns.
const PeriodMonthLayout = "2006-01"

// InvestmentReturnStatus marks whether a posted return has been credited.
type InvestmentReturnStatus string

const (
	ReturnPaid InvestmentReturnStatus = "paid"
)

// InvestmentReturn records one monthly profit posting for an investment.
// At most one row may exist per (investment, period month).
type InvestmentReturn struct {
	Base
	InvestmentID uint                   `gorm:"not null;uniqueIndex:uq_return_investment_period" json:"investment_id"`
	UserID       uint                   `gorm:"not null;index" json:"user_id"`
	PeriodMonth  string                 `gorm:"size:7;not null;uniqueIndex:uq_return_investment_period" json:"period_month"`
	RateApplied  float64                `gorm:"not null" json:"rate_applied"`
	GrossAmount  int64                  `gorm:"type:bigint;not null" json:"gross_amount"`
	NetAmount    int64                  `gorm:"type:bigint;not null" json:"net_amount"`
	Status       InvestmentReturnStatus `gorm:"not null;default:'paid'" json:"status"`
	Notes        string                 `json:"notes,omitempty"`
}
