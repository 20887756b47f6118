package models

import "time"

// TransactionType classifies ledger entries. The type determines whether an
// entry credits or debits the derived balance; amounts are always positive.
type TransactionType string

const (
	TransactionDeposit              TransactionType = "deposit"
	TransactionWithdraw             TransactionType = "withdraw"
	TransactionPayment              TransactionType = "payment"
	TransactionInterest             TransactionType = "interest"
	TransactionProfit               TransactionType = "profit"
	TransactionLoan                 TransactionType = "loan"
	TransactionInvestment           TransactionType = "investment"
	TransactionInvestmentReturn     TransactionType = "investment_return"
	TransactionInvestmentWithdrawal TransactionType = "investment_withdrawal"
)

// CreditTypes are the transaction types summed as credits when deriving a
// balance. TransactionInvestment is deliberately absent: locking capital into
// an investment does not move cash through the ledger, it only reduces the
// available balance via the active-principal subtraction.
var CreditTypes = []TransactionType{
	TransactionDeposit,
	TransactionPayment,
	TransactionInterest,
	TransactionProfit,
	TransactionInvestmentReturn,
	TransactionInvestmentWithdrawal,
	TransactionLoan,
}

// DebitTypes are the transaction types summed as debits.
var DebitTypes = []TransactionType{TransactionWithdraw}

// Transaction is an append-only ledger entry. Rows are never mutated after
// creation; administrative deletion must re-derive the owner's balance.
type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	InvestmentID *uint           `gorm:"index" json:"investment_id,omitempty"`
	Type         TransactionType `gorm:"not null;index" json:"type"`
	Amount       int64           `gorm:"type:bigint;not null" json:"amount"`
	Description  string          `json:"description"`
	RefID        string          `gorm:"uniqueIndex;not null" json:"ref_id"`
	CreatedAt    time.Time       `gorm:"not null;index" json:"created_at"`
}
