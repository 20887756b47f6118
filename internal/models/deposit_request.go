package models

import "time"

// DepositStatus is the lifecycle state of a deposit request.
type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositApproved DepositStatus = "approved"
	DepositRejected DepositStatus = "rejected"
)

// Deposit limits.
const (
	DepositMinAmount      int64 = 10_000
	MaxPendingDeposits          = 3
)

// DepositRequest claims that funds were transferred to the platform, backed
// by a payment proof image. Approval writes the deposit ledger entry and may
// trigger a referral commission.
type DepositRequest struct {
	Base
	UserID      uint          `gorm:"not null;index" json:"user_id"`
	Amount      int64         `gorm:"type:bigint;not null" json:"amount"`
	Method      string        `json:"method,omitempty"`
	ProofImage  string        `gorm:"not null" json:"proof_image"`
	Note        string        `json:"note,omitempty"`
	Status      DepositStatus `gorm:"not null;index" json:"status"`
	AdminNotes  string        `json:"admin_notes,omitempty"`
	RefID       string        `gorm:"uniqueIndex;not null" json:"ref_id"`
	ProcessedAt *time.Time    `json:"processed_at,omitempty"`
	ProcessedBy *uint         `json:"processed_by,omitempty"`
}
