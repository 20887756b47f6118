package models

import "time"

// WithdrawalStatus is the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

// Withdrawal limits.
const (
	WithdrawalMinAmount  int64 = 10_000
	WithdrawalMonthlyCap int64 = 2_000_000
)

// WithdrawalRequest asks to move funds out of the platform to one of the
// user's registered payment methods. The ledger is only debited when the
// request completes; until then the reserved amount reduces the available
// balance without touching the derived balance.
type WithdrawalRequest struct {
	Base
	UserID              uint             `gorm:"not null;index" json:"user_id"`
	PaymentMethodID     uint             `gorm:"not null" json:"payment_method_id"`
	Amount              int64            `gorm:"type:bigint;not null" json:"amount"`
	Status              WithdrawalStatus `gorm:"not null;index" json:"status"`
	EstimatedCompletion string           `json:"estimated_completion"`
	AdminNotes          string           `json:"admin_notes,omitempty"`
	RefID               string           `gorm:"uniqueIndex;not null" json:"ref_id"`
	ProcessedAt         *time.Time       `json:"processed_at,omitempty"`
	ProcessedBy         *uint            `json:"processed_by,omitempty"`

	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID" json:"payment_method,omitempty"`
}

// Reserved reports whether the request still holds funds against the
// available balance.
func (w *WithdrawalRequest) Reserved() bool {
	return w.Status == WithdrawalPending || w.Status == WithdrawalApproved
}
