package models

import "time"

// RegistrationStatus is the review state of a signup.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// RegistrationRequest tracks a new signup awaiting administrative review.
// The account exists immediately and can log in; the request is an audit
// trail for the onboarding queue.
type RegistrationRequest struct {
	Base
	UserID      uint               `gorm:"not null;uniqueIndex" json:"user_id"`
	Status      RegistrationStatus `gorm:"not null;index" json:"status"`
	AdminNotes  string             `json:"admin_notes,omitempty"`
	ProcessedAt *time.Time         `json:"processed_at,omitempty"`
	ProcessedBy *uint              `json:"processed_by,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
