package services

import (
	"testing"

	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/testutil"
)

func TestCascade_NoReferrer(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.DB)

	commission, err := env.Referrals.Cascade(env.DB, user.ID, models.CommissionFromInvestmentReturn, 100_000)
	testutil.AssertNoError(t, err)
	if commission != 0 {
		t.Errorf("expected no commission without a referrer, got %d", commission)
	}

	var count int64
	if err := env.DB.Model(&models.ReferralCommission{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count commissions: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no commission rows, got %d", count)
	}
}

func TestCascade_BelowThreshold(t *testing.T) {
	env := newTestEnv(t)
	referrer := testutil.CreateTestUser(t, env.DB)
	referred := testutil.CreateTestReferredUser(t, env.DB, referrer.ID)

	// round(1980 * 0.05) = 99, under the posting threshold.
	commission, err := env.Referrals.Cascade(env.DB, referred.ID, models.CommissionFromInvestmentReturn, 1_980)
	testutil.AssertNoError(t, err)
	if commission != 0 {
		t.Errorf("expected sub-threshold commission dropped, got %d", commission)
	}

	balance, err := env.Ledger.CurrentBalance(referrer.ID)
	testutil.AssertNoError(t, err)
	if balance != 0 {
		t.Errorf("expected referrer balance unchanged, got %d", balance)
	}
}

func TestCascade_PostsCommission(t *testing.T) {
	env := newTestEnv(t)
	referrer := testutil.CreateTestUser(t, env.DB)
	referred := testutil.CreateTestReferredUser(t, env.DB, referrer.ID)

	commission, err := env.Referrals.Cascade(env.DB, referred.ID, models.CommissionFromLoanInterest, 40_000)
	testutil.AssertNoError(t, err)
	if commission != 2_000 {
		t.Errorf("expected commission 2000, got %d", commission)
	}

	var entry models.Transaction
	if err := env.DB.Where("user_id = ? AND type = ?", referrer.ID, models.TransactionProfit).
		First(&entry).Error; err != nil {
		t.Fatalf("expected a profit entry for the referrer: %v", err)
	}
	if entry.Amount != 2_000 {
		t.Errorf("expected entry amount 2000, got %d", entry.Amount)
	}

	var record models.ReferralCommission
	if err := env.DB.Where("referrer_id = ?", referrer.ID).First(&record).Error; err != nil {
		t.Fatalf("expected a commission record: %v", err)
	}
	if record.TransactionID != entry.ID {
		t.Errorf("expected commission linked to entry %d, got %d", entry.ID, record.TransactionID)
	}
	if record.Source != models.CommissionFromLoanInterest {
		t.Errorf("unexpected source %s", record.Source)
	}

	balance, err := env.Ledger.CurrentBalance(referrer.ID)
	testutil.AssertNoError(t, err)
	if balance != 2_000 {
		t.Errorf("expected referrer balance 2000, got %d", balance)
	}
}

func TestMySummary(t *testing.T) {
	env := newTestEnv(t)
	referrer := testutil.CreateTestUser(t, env.DB)
	first := testutil.CreateTestReferredUser(t, env.DB, referrer.ID)
	second := testutil.CreateTestReferredUser(t, env.DB, referrer.ID)

	testutil.CreateTestTransaction(t, env.DB, first.ID, models.TransactionDeposit, 500_000)
	testutil.CreateTestInvestment(t, env.DB, first.ID, 100_000, models.InvestmentActive)

	_, err := env.Referrals.Cascade(env.DB, first.ID, models.CommissionFromInvestmentReturn, 30_000)
	testutil.AssertNoError(t, err)

	summary, err := env.Referrals.MySummary(referrer.ID)
	testutil.AssertNoError(t, err)
	if summary.Code != referrer.ReferralCode {
		t.Errorf("expected code %s, got %s", referrer.ReferralCode, summary.Code)
	}
	if summary.TotalReferred != 2 {
		t.Errorf("expected 2 referred, got %d", summary.TotalReferred)
	}
	if summary.TotalCommissions != 1_500 {
		t.Errorf("expected total commissions 1500, got %d", summary.TotalCommissions)
	}

	for _, d := range summary.Referred {
		switch d.FullName {
		case first.FullName:
			if !d.HasInvested || !d.HasDeposited {
				t.Errorf("expected first referred flagged active, got %+v", d)
			}
			if d.Commissions != 1_500 {
				t.Errorf("expected 1500 from first referred, got %d", d.Commissions)
			}
		case second.FullName:
			if d.HasInvested || d.HasDeposited || d.Commissions != 0 {
				t.Errorf("expected second referred inactive, got %+v", d)
			}
		default:
			t.Errorf("unexpected referred entry %q", d.FullName)
		}
	}
}
