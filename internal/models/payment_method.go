package models

// PaymentMethodType identifies the payout channel of a payment method.
type PaymentMethodType string

const (
	PaymentMethodNequi       PaymentMethodType = "nequi"
	PaymentMethodDaviplata   PaymentMethodType = "daviplata"
	PaymentMethodBankAccount PaymentMethodType = "bank_account"
)

// MaxPaymentMethods caps how many active methods a user may register.
const MaxPaymentMethods = 3

// PaymentMethod is a destination for withdrawals. Methods referenced by any
// withdrawal are never deleted, only deactivated.
type PaymentMethod struct {
	Base
	UserID         uint              `gorm:"not null;index" json:"user_id"`
	Type           PaymentMethodType `gorm:"not null" json:"type"`
	Label          string            `json:"label,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	AccountNumber  string            `json:"account_number,omitempty"`
	AccountType    string            `json:"account_type,omitempty"`
	BankName       string            `json:"bank_name,omitempty"`
	HolderName     string            `gorm:"not null" json:"holder_name"`
	HolderDocument string            `gorm:"not null" json:"holder_document"`
	IsDefault      bool              `gorm:"not null;default:false" json:"is_default"`
	IsActive       bool              `gorm:"not null;default:true" json:"is_active"`
}
