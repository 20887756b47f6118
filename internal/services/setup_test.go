package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/Fidiestro/sanse-backend/internal/notifier"
	"github.com/Fidiestro/sanse-backend/internal/testutil"
)

// testEnv wires the full service stack against an in-memory database.
type testEnv struct {
	DB          *gorm.DB
	Audit       AuditServicer
	Ledger      LedgerServicer
	Referrals   ReferralServicer
	Investments InvestmentServicer
	Withdrawals WithdrawalServicer
	Deposits    DepositServicer
	Loans       LoanServicer
	Users       UserServicer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	audit := NewAuditService(db)
	ledger := NewLedgerService(db, audit)
	referrals := NewReferralService(db, ledger)

	return &testEnv{
		DB:          db,
		Audit:       audit,
		Ledger:      ledger,
		Referrals:   referrals,
		Investments: NewInvestmentService(db, ledger, referrals, audit),
		Withdrawals: NewWithdrawalService(db, ledger, notifier.Noop{}, audit),
		Deposits:    NewDepositService(db, ledger, notifier.Noop{}, audit),
		Loans:       NewLoanService(db, ledger, referrals, notifier.Noop{}, audit),
		Users:       NewUserService(db, notifier.Noop{}, audit),
	}
}
