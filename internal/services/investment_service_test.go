package services

import (
	"testing"
	"time"

	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/testutil"
)

func TestCreateInvestment(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown product", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		_, err := env.Investments.Create(user.ID, "no_such_product", 100_000)
		testutil.AssertAppError(t, err, "PRODUCT_NOT_AVAILABLE")
	})

	t.Run("below product minimum", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		_, err := env.Investments.Create(user.ID, "sdtc_6m", 50_000)
		testutil.AssertAppError(t, err, "BELOW_MINIMUM_AMOUNT")
	})

	t.Run("insufficient available balance", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		_, err := env.Investments.Create(user.ID, "sdtc_6m", 100_000)
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")
	})

	t.Run("reduces available balance without a cash movement", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		testutil.CreateTestTransaction(t, env.DB, user.ID, models.TransactionDeposit, 150_000)

		inv, err := env.Investments.Create(user.ID, "sdtc_6m", 100_000)
		testutil.AssertNoError(t, err)
		if inv.Status != models.InvestmentPendingDeposit {
			t.Errorf("expected pending_deposit, got %s", inv.Status)
		}

		available, err := env.Ledger.AvailableBalance(nil, user.ID)
		testutil.AssertNoError(t, err)
		if available != 50_000 {
			t.Errorf("expected available 50000, got %d", available)
		}
		// The derived balance itself is untouched.
		balance, err := env.Ledger.CurrentBalance(user.ID)
		testutil.AssertNoError(t, err)
		if balance != 150_000 {
			t.Errorf("expected balance 150000, got %d", balance)
		}
	})

	t.Run("open position limit", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		testutil.CreateTestTransaction(t, env.DB, user.ID, models.TransactionDeposit, 1_000_000)
		for i := 0; i < models.MaxOpenInvestments; i++ {
			testutil.CreateTestInvestment(t, env.DB, user.ID, 100_000, models.InvestmentActive)
		}

		_, err := env.Investments.Create(user.ID, "sdtc_6m", 100_000)
		testutil.AssertAppError(t, err, "INVESTMENT_LIMIT_REACHED")
	})
}

func TestConfirmInvestment(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.DB)
	testutil.CreateTestTransaction(t, env.DB, user.ID, models.TransactionDeposit, 200_000)

	inv, err := env.Investments.Create(user.ID, "sdtc_6m", 100_000)
	testutil.AssertNoError(t, err)

	confirmed, err := env.Investments.Confirm(user.ID, inv.ID)
	testutil.AssertNoError(t, err)
	if confirmed.Status != models.InvestmentActive {
		t.Errorf("expected active, got %s", confirmed.Status)
	}

	// Confirming an already active position is a stale action.
	_, err = env.Investments.Confirm(user.ID, inv.ID)
	testutil.AssertAppError(t, err, "INVESTMENT_STALE_STATE")
}

func TestConfirmInvestment_AfterGraceWindow(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.DB)

	inv := testutil.CreateTestInvestment(t, env.DB, user.ID, 100_000, models.InvestmentPendingDeposit)
	testutil.AgeInvestment(t, env.DB, inv, models.GraceWindow+time.Hour)

	_, err := env.Investments.Confirm(user.ID, inv.ID)
	testutil.AssertAppError(t, err, "INVESTMENT_STALE_STATE")

	// The lazy promotion was persisted by the read.
	var reloaded models.Investment
	if err := env.DB.First(&reloaded, inv.ID).Error; err != nil {
		t.Fatalf("failed to reload investment: %v", err)
	}
	if reloaded.Status != models.InvestmentActive {
		t.Errorf("expected stored status promoted to active, got %s", reloaded.Status)
	}
}

func TestCancelInvestment(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.DB)
	testutil.CreateTestTransaction(t, env.DB, user.ID, models.TransactionDeposit, 200_000)

	inv, err := env.Investments.Create(user.ID, "sdtc_6m", 100_000)
	testutil.AssertNoError(t, err)

	err = env.Investments.Cancel(user.ID, inv.ID)
	testutil.AssertNoError(t, err)

	// The position and its ledger entries are gone, funds released.
	_, err = env.Investments.Get(user.ID, inv.ID)
	testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")

	var entries int64
	if err := env.DB.Model(&models.Transaction{}).
		Where("investment_id = ?", inv.ID).Count(&entries).Error; err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	if entries != 0 {
		t.Errorf("expected investment entries deleted, got %d", entries)
	}

	available, err := env.Ledger.AvailableBalance(nil, user.ID)
	testutil.AssertNoError(t, err)
	if available != 200_000 {
		t.Errorf("expected available restored to 200000, got %d", available)
	}
}

func TestCancelInvestment_AfterGraceWindow(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.DB)

	inv := testutil.CreateTestInvestment(t, env.DB, user.ID, 100_000, models.InvestmentPendingDeposit)
	testutil.AgeInvestment(t, env.DB, inv, models.GraceWindow+time.Hour)

	err := env.Investments.Cancel(user.ID, inv.ID)
	testutil.AssertAppError(t, err, "INVESTMENT_STALE_STATE")
}

func TestAddCapital(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.DB)
	testutil.CreateTestTransaction(t, env.DB, user.ID, models.TransactionDeposit, 300_000)

	inv := testutil.CreateTestInvestment(t, env.DB, user.ID, 100_000, models.InvestmentActive)
	lockEnd := inv.LockEndDate

	updated, err := env.Investments.AddCapital(user.ID, inv.ID, 50_000)
	testutil.AssertNoError(t, err)
	if updated.Amount != 150_000 {
		t.Errorf("expected principal 150000, got %d", updated.Amount)
	}
	// The top-up settles on the original maturity date.
	if !updated.LockEndDate.Equal(lockEnd) {
		t.Errorf("expected lock end unchanged, got %s", updated.LockEndDate)
	}

	available, err := env.Ledger.AvailableBalance(nil, user.ID)
	testutil.AssertNoError(t, err)
	if available != 150_000 {
		t.Errorf("expected available 150000 after top-up, got %d", available)
	}

	t.Run("requires an active position", func(t *testing.T) {
		pending := testutil.CreateTestInvestment(t, env.DB, user.ID, 100_000, models.InvestmentPendingDeposit)
		_, err := env.Investments.AddCapital(user.ID, pending.ID, 10_000)
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_ACTIVE")
	})

	t.Run("insufficient available balance", func(t *testing.T) {
		_, err := env.Investments.AddCapital(user.ID, inv.ID, 10_000_000)
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")
	})
}

func TestWithdrawInvestment(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.DB)

	inv := testutil.CreateTestInvestment(t, env.DB, user.ID, 100_000, models.InvestmentActive)

	// Still inside the lock period.
	_, err := env.Investments.Withdraw(user.ID, inv.ID)
	testutil.AssertAppError(t, err, "INVESTMENT_LOCKED")

	testutil.UnlockInvestment(t, env.DB, inv)

	closed, err := env.Investments.Withdraw(user.ID, inv.ID)
	testutil.AssertNoError(t, err)
	if closed.Status != models.InvestmentCompleted {
		t.Errorf("expected completed, got %s", closed.Status)
	}

	// The matured principal re-enters the cash ledger.
	balance, err := env.Ledger.CurrentBalance(user.ID)
	testutil.AssertNoError(t, err)
	if balance != 100_000 {
		t.Errorf("expected balance 100000 after maturity, got %d", balance)
	}

	var entry models.Transaction
	if err := env.DB.Where("investment_id = ? AND type = ?", inv.ID, models.TransactionInvestmentWithdrawal).
		First(&entry).Error; err != nil {
		t.Fatalf("expected an investment_withdrawal entry: %v", err)
	}
	if entry.Amount != 100_000 {
		t.Errorf("expected entry amount 100000, got %d", entry.Amount)
	}

	// A completed position cannot be withdrawn again.
	_, err = env.Investments.Withdraw(user.ID, inv.ID)
	testutil.AssertAppError(t, err, "INVESTMENT_NOT_ACTIVE")
}

func TestPostMonthlyReturn(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestAdmin(t, env.DB)

	t.Run("rejects invalid rate and period", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		inv := testutil.CreateTestInvestment(t, env.DB, user.ID, 1_000_000, models.InvestmentActive)

		_, err := env.Investments.PostMonthlyReturn(admin.ID, inv.ID, "2026-08", 101)
		testutil.AssertAppError(t, err, "INVALID_RATE")

		_, err = env.Investments.PostMonthlyReturn(admin.ID, inv.ID, "08-2026", 3)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("without referrer the investor keeps the gross", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		inv := testutil.CreateTestInvestment(t, env.DB, user.ID, 1_000_000, models.InvestmentActive)

		ret, err := env.Investments.PostMonthlyReturn(admin.ID, inv.ID, "2026-08", 3)
		testutil.AssertNoError(t, err)
		if ret.GrossAmount != 30_000 {
			t.Errorf("expected gross 30000, got %d", ret.GrossAmount)
		}
		if ret.NetAmount != 30_000 {
			t.Errorf("expected net 30000, got %d", ret.NetAmount)
		}
		if ret.Status != models.ReturnPaid {
			t.Errorf("expected status paid, got %s", ret.Status)
		}

		balance, err := env.Ledger.CurrentBalance(user.ID)
		testutil.AssertNoError(t, err)
		if balance != 30_000 {
			t.Errorf("expected investor balance 30000, got %d", balance)
		}
	})

	t.Run("with referrer the commission is netted out and cascaded", func(t *testing.T) {
		referrer := testutil.CreateTestUser(t, env.DB)
		investor := testutil.CreateTestReferredUser(t, env.DB, referrer.ID)
		inv := testutil.CreateTestInvestment(t, env.DB, investor.ID, 1_000_000, models.InvestmentActive)

		ret, err := env.Investments.PostMonthlyReturn(admin.ID, inv.ID, "2026-08", 3)
		testutil.AssertNoError(t, err)
		if ret.GrossAmount != 30_000 {
			t.Errorf("expected gross 30000, got %d", ret.GrossAmount)
		}
		if ret.NetAmount != 28_500 {
			t.Errorf("expected net 28500, got %d", ret.NetAmount)
		}

		investorBalance, err := env.Ledger.CurrentBalance(investor.ID)
		testutil.AssertNoError(t, err)
		if investorBalance != 28_500 {
			t.Errorf("expected investor balance 28500, got %d", investorBalance)
		}

		referrerBalance, err := env.Ledger.CurrentBalance(referrer.ID)
		testutil.AssertNoError(t, err)
		if referrerBalance != 1_500 {
			t.Errorf("expected referrer balance 1500, got %d", referrerBalance)
		}

		var commission models.ReferralCommission
		if err := env.DB.Where("referrer_id = ? AND referred_id = ?", referrer.ID, investor.ID).
			First(&commission).Error; err != nil {
			t.Fatalf("expected a commission record: %v", err)
		}
		if commission.Amount != 1_500 {
			t.Errorf("expected commission 1500, got %d", commission.Amount)
		}
		if commission.Source != models.CommissionFromInvestmentReturn {
			t.Errorf("unexpected commission source %s", commission.Source)
		}
	})

	t.Run("duplicate period", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		inv := testutil.CreateTestInvestment(t, env.DB, user.ID, 1_000_000, models.InvestmentActive)

		_, err := env.Investments.PostMonthlyReturn(admin.ID, inv.ID, "2026-07", 2)
		testutil.AssertNoError(t, err)
		_, err = env.Investments.PostMonthlyReturn(admin.ID, inv.ID, "2026-07", 3)
		testutil.AssertAppError(t, err, "DUPLICATE_RETURN_PERIOD")

		// A different month is fine.
		_, err = env.Investments.PostMonthlyReturn(admin.ID, inv.ID, "2026-08", 3)
		testutil.AssertNoError(t, err)
	})

	t.Run("requires an active position", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		inv := testutil.CreateTestInvestment(t, env.DB, user.ID, 1_000_000, models.InvestmentPendingDeposit)

		_, err := env.Investments.PostMonthlyReturn(admin.ID, inv.ID, "2026-08", 3)
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_ACTIVE")
	})
}

func TestInvestmentSummary(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestAdmin(t, env.DB)
	user := testutil.CreateTestUser(t, env.DB)

	active := testutil.CreateTestInvestment(t, env.DB, user.ID, 500_000, models.InvestmentActive)
	testutil.CreateTestInvestment(t, env.DB, user.ID, 200_000, models.InvestmentPendingDeposit)
	testutil.CreateTestInvestment(t, env.DB, user.ID, 300_000, models.InvestmentCompleted)

	_, err := env.Investments.PostMonthlyReturn(admin.ID, active.ID, "2026-08", 2)
	testutil.AssertNoError(t, err)

	sum, err := env.Investments.Summary(user.ID)
	testutil.AssertNoError(t, err)
	if sum.TotalInvested != 700_000 {
		t.Errorf("expected total invested 700000, got %d", sum.TotalInvested)
	}
	if sum.OpenPositions != 2 {
		t.Errorf("expected 2 open positions, got %d", sum.OpenPositions)
	}
	if sum.ClosedPositions != 1 {
		t.Errorf("expected 1 closed position, got %d", sum.ClosedPositions)
	}
	if sum.TotalEarned != 10_000 {
		t.Errorf("expected total earned 10000, got %d", sum.TotalEarned)
	}
}
