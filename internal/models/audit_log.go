package models

import "time"

// AuditLog records an administrative or balance-affecting action. Entries are
// written inside the same transaction as the action they describe.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    uint      `gorm:"not null;index" json:"actor_id"`
	Action     string    `gorm:"not null;index" json:"action"`
	EntityType string    `gorm:"not null" json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
