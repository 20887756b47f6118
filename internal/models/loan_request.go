package models

import "time"

// LoanStatus is the lifecycle state of a loan request.
type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanActive   LoanStatus = "active"
	LoanRejected LoanStatus = "rejected"
	LoanPaid     LoanStatus = "paid"
	LoanOverdue  LoanStatus = "overdue"
)

// Loan amount and term limits.
const (
	LoanMinAmount  int64 = 100_000
	LoanMaxAmount  int64 = 10_000_000
	LoanMinPayment int64 = 1_000
	LoanScoreFloor       = 200
)

// LoanTerms are the allowed repayment terms in months.
var LoanTerms = []int{1, 2, 3, 6}

// ValidLoanTerm reports whether months is an allowed repayment term.
func ValidLoanTerm(months int) bool {
	for _, t := range LoanTerms {
		if t == months {
			return true
		}
	}
	return false
}

// LoanRequest is a user's credit application and, once approved, the open
// loan itself. Interest accrues as a single monthly rate on the approved
// principal; repayments split between an interest portion and principal.
type LoanRequest struct {
	Base
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Amount          int64      `gorm:"type:bigint;not null" json:"amount"`
	TermMonths      int        `gorm:"not null" json:"term_months"`
	Purpose         string     `json:"purpose,omitempty"`
	Status          LoanStatus `gorm:"not null;index" json:"status"`
	ScoreAtRequest  int        `gorm:"not null" json:"score_at_request"`
	ApprovedAmount  *int64     `gorm:"type:bigint" json:"approved_amount,omitempty"`
	ApprovedRate    *float64   `json:"approved_rate,omitempty"`
	OutstandingDebt int64      `gorm:"type:bigint;not null;default:0" json:"outstanding_debt"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	AdminNotes      string     `json:"admin_notes,omitempty"`
	RefID           string     `gorm:"uniqueIndex;not null" json:"ref_id"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessedBy     *uint      `json:"processed_by,omitempty"`
}

// IsOpen reports whether the loan blocks a new request from the same user.
func (l *LoanRequest) IsOpen() bool {
	return l.Status == LoanPending || l.Status == LoanActive
}
