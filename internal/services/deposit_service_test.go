package services

import (
	"testing"

	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/testutil"
)

func TestRequestDeposit(t *testing.T) {
	env := newTestEnv(t)

	t.Run("below minimum", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		_, err := env.Deposits.Request(user.ID, models.DepositMinAmount-1, "nequi", "proof.jpg", "")
		testutil.AssertAppError(t, err, "BELOW_MINIMUM_AMOUNT")
	})

	t.Run("proof required", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		_, err := env.Deposits.Request(user.ID, 50_000, "nequi", "", "")
		testutil.AssertAppError(t, err, "PROOF_REQUIRED")
	})

	t.Run("pending limit", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		for i := 0; i < models.MaxPendingDeposits; i++ {
			_, err := env.Deposits.Request(user.ID, 50_000, "nequi", "proof.jpg", "")
			testutil.AssertNoError(t, err)
		}
		_, err := env.Deposits.Request(user.ID, 50_000, "nequi", "proof.jpg", "")
		testutil.AssertAppError(t, err, "PENDING_DEPOSIT_LIMIT")
	})
}

func TestProcessDeposit(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestAdmin(t, env.DB)

	t.Run("approval credits the ledger", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		req, err := env.Deposits.Request(user.ID, 120_000, "bank", "proof.jpg", "")
		testutil.AssertNoError(t, err)

		processed, err := env.Deposits.Process(admin.ID, req.ID, "approve", "verified")
		testutil.AssertNoError(t, err)
		if processed.Status != models.DepositApproved {
			t.Errorf("expected approved, got %s", processed.Status)
		}

		balance, err := env.Ledger.CurrentBalance(user.ID)
		testutil.AssertNoError(t, err)
		if balance != 120_000 {
			t.Errorf("expected balance 120000, got %d", balance)
		}

		var entry models.Transaction
		if err := env.DB.Where("user_id = ? AND type = ?", user.ID, models.TransactionDeposit).
			First(&entry).Error; err != nil {
			t.Fatalf("expected a deposit entry: %v", err)
		}
		if entry.Amount != 120_000 {
			t.Errorf("expected entry amount 120000, got %d", entry.Amount)
		}

		// A resolved request cannot be processed twice.
		_, err = env.Deposits.Process(admin.ID, req.ID, "reject", "")
		testutil.AssertAppError(t, err, "ALREADY_PROCESSED")
	})

	t.Run("rejection leaves the ledger untouched", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		req, err := env.Deposits.Request(user.ID, 80_000, "bank", "proof.jpg", "")
		testutil.AssertNoError(t, err)

		processed, err := env.Deposits.Process(admin.ID, req.ID, "reject", "proof unreadable")
		testutil.AssertNoError(t, err)
		if processed.Status != models.DepositRejected {
			t.Errorf("expected rejected, got %s", processed.Status)
		}

		balance, err := env.Ledger.CurrentBalance(user.ID)
		testutil.AssertNoError(t, err)
		if balance != 0 {
			t.Errorf("expected balance 0 after rejection, got %d", balance)
		}
	})
}
