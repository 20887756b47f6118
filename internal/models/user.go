package models

// Role distinguishes ordinary users from administrative operators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserStatus is the account lifecycle state. Accounts are never physically
// deleted; they are blocked instead.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// User represents an account holder in the system.
type User struct {
	Base
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"not null" json:"-"`
	FullName       string     `gorm:"not null" json:"full_name"`
	Phone          string     `json:"phone,omitempty"`
	DocumentNumber string     `json:"document_number,omitempty"`
	Role           Role       `gorm:"not null;default:'user'" json:"role"`
	Status         UserStatus `gorm:"not null;default:'active'" json:"status"`
	ReferralCode   string     `gorm:"uniqueIndex;not null" json:"referral_code"`
	ReferredBy     *uint      `gorm:"index" json:"referred_by,omitempty"`
	MonthlyGoal    int64      `gorm:"type:bigint;not null;default:0" json:"monthly_goal"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
	Investments  []Investment  `gorm:"foreignKey:UserID" json:"investments,omitempty"`
}

// IsAdmin reports whether the user holds the administrative role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
