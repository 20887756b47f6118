package models

import "time"

// SnapshotDateLayout is the calendar-day key format for balance snapshots.
const SnapshotDateLayout = "2006-01-02"

// BalanceSnapshot caches the derived balance of an account for one calendar
// day. It is never an independent source of truth: the ledger engine upserts
// the row for (user, today) after every balance-affecting write, and the
// current balance of an account is the snapshot with the most recent date.
type BalanceSnapshot struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:uq_balance_user_date" json:"user_id"`
	Amount       int64     `gorm:"type:bigint;not null" json:"amount"`
	SnapshotDate string    `gorm:"size:10;not null;uniqueIndex:uq_balance_user_date" json:"snapshot_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
