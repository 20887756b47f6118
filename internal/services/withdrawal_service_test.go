package services

import (
	"testing"

	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/testutil"
)

func TestEstimateCompletion(t *testing.T) {
	if got := EstimateCompletion(500_000); got != "≤24h" {
		t.Errorf("expected ≤24h for 500000, got %q", got)
	}
	if got := EstimateCompletion(2_500_000); got != "30 days" {
		t.Errorf("expected 30 days for 2500000, got %q", got)
	}
}

func TestAddPaymentMethod(t *testing.T) {
	env := newTestEnv(t)

	t.Run("wallet requires a phone", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		_, err := env.Withdrawals.AddPaymentMethod(user.ID, &models.PaymentMethod{
			Type:           models.PaymentMethodNequi,
			HolderName:     "Holder",
			HolderDocument: "CC1",
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("bank account requires bank and number", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		_, err := env.Withdrawals.AddPaymentMethod(user.ID, &models.PaymentMethod{
			Type:           models.PaymentMethodBankAccount,
			HolderName:     "Holder",
			HolderDocument: "CC1",
			BankName:       "Bancolombia",
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("first method becomes default and limit applies", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)

		first, err := env.Withdrawals.AddPaymentMethod(user.ID, &models.PaymentMethod{
			Type:           models.PaymentMethodNequi,
			Phone:          "3001234567",
			HolderName:     "Holder",
			HolderDocument: "CC1",
		})
		testutil.AssertNoError(t, err)
		if !first.IsDefault {
			t.Error("expected first method to be default")
		}

		for i := 0; i < models.MaxPaymentMethods-1; i++ {
			_, err := env.Withdrawals.AddPaymentMethod(user.ID, &models.PaymentMethod{
				Type:           models.PaymentMethodDaviplata,
				Phone:          "3007654321",
				HolderName:     "Holder",
				HolderDocument: "CC1",
			})
			testutil.AssertNoError(t, err)
		}

		_, err = env.Withdrawals.AddPaymentMethod(user.ID, &models.PaymentMethod{
			Type:           models.PaymentMethodNequi,
			Phone:          "3000000000",
			HolderName:     "Holder",
			HolderDocument: "CC1",
		})
		testutil.AssertAppError(t, err, "PAYMENT_METHOD_LIMIT")
	})

	t.Run("explicit default unsets the previous one", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)

		first, err := env.Withdrawals.AddPaymentMethod(user.ID, &models.PaymentMethod{
			Type:           models.PaymentMethodNequi,
			Phone:          "3001234567",
			HolderName:     "Holder",
			HolderDocument: "CC1",
		})
		testutil.AssertNoError(t, err)

		second, err := env.Withdrawals.AddPaymentMethod(user.ID, &models.PaymentMethod{
			Type:           models.PaymentMethodNequi,
			Phone:          "3009999999",
			HolderName:     "Holder",
			HolderDocument: "CC1",
			IsDefault:      true,
		})
		testutil.AssertNoError(t, err)
		if !second.IsDefault {
			t.Error("expected second method to be default")
		}

		var reloaded models.PaymentMethod
		if err := env.DB.First(&reloaded, first.ID).Error; err != nil {
			t.Fatalf("failed to reload method: %v", err)
		}
		if reloaded.IsDefault {
			t.Error("expected first method no longer default")
		}
	})
}

func TestDeletePaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.DB)

	t.Run("blocked by open withdrawals", func(t *testing.T) {
		method := testutil.CreateTestPaymentMethod(t, env.DB, user.ID)
		wr := &models.WithdrawalRequest{
			UserID:          user.ID,
			PaymentMethodID: method.ID,
			Amount:          20_000,
			Status:          models.WithdrawalPending,
			RefID:           "RET-TEST-DEL1",
		}
		if err := env.DB.Create(wr).Error; err != nil {
			t.Fatalf("failed to create withdrawal: %v", err)
		}

		err := env.Withdrawals.DeletePaymentMethod(user.ID, method.ID)
		testutil.AssertAppError(t, err, "PAYMENT_METHOD_IN_USE")
	})

	t.Run("deactivated when referenced by settled history", func(t *testing.T) {
		method := testutil.CreateTestPaymentMethod(t, env.DB, user.ID)
		wr := &models.WithdrawalRequest{
			UserID:          user.ID,
			PaymentMethodID: method.ID,
			Amount:          20_000,
			Status:          models.WithdrawalCompleted,
			RefID:           "RET-TEST-DEL2",
		}
		if err := env.DB.Create(wr).Error; err != nil {
			t.Fatalf("failed to create withdrawal: %v", err)
		}

		err := env.Withdrawals.DeletePaymentMethod(user.ID, method.ID)
		testutil.AssertNoError(t, err)

		var reloaded models.PaymentMethod
		if err := env.DB.First(&reloaded, method.ID).Error; err != nil {
			t.Fatalf("expected method kept for the trail: %v", err)
		}
		if reloaded.IsActive {
			t.Error("expected method deactivated")
		}
	})

	t.Run("deleted outright when unreferenced", func(t *testing.T) {
		method := testutil.CreateTestPaymentMethod(t, env.DB, user.ID)

		err := env.Withdrawals.DeletePaymentMethod(user.ID, method.ID)
		testutil.AssertNoError(t, err)

		var count int64
		if err := env.DB.Model(&models.PaymentMethod{}).
			Where("id = ?", method.ID).Count(&count).Error; err != nil {
			t.Fatalf("failed to count methods: %v", err)
		}
		if count != 0 {
			t.Error("expected method removed")
		}
	})
}

func TestRequestWithdrawal(t *testing.T) {
	env := newTestEnv(t)

	t.Run("below minimum", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		method := testutil.CreateTestPaymentMethod(t, env.DB, user.ID)
		_, err := env.Withdrawals.Request(user.ID, method.ID, models.WithdrawalMinAmount-1)
		testutil.AssertAppError(t, err, "BELOW_MINIMUM_AMOUNT")
	})

	t.Run("insufficient available balance", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		method := testutil.CreateTestPaymentMethod(t, env.DB, user.ID)
		_, err := env.Withdrawals.Request(user.ID, method.ID, 50_000)
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")
	})

	t.Run("reserves against the available balance", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		method := testutil.CreateTestPaymentMethod(t, env.DB, user.ID)
		testutil.CreateTestTransaction(t, env.DB, user.ID, models.TransactionDeposit, 500_000)

		req, err := env.Withdrawals.Request(user.ID, method.ID, 200_000)
		testutil.AssertNoError(t, err)
		if req.Status != models.WithdrawalPending {
			t.Errorf("expected pending, got %s", req.Status)
		}
		if req.EstimatedCompletion != "≤24h" {
			t.Errorf("expected ≤24h estimate, got %q", req.EstimatedCompletion)
		}

		available, err := env.Ledger.AvailableBalance(nil, user.ID)
		testutil.AssertNoError(t, err)
		if available != 300_000 {
			t.Errorf("expected available 300000, got %d", available)
		}
		// Nothing left the ledger yet.
		balance, err := env.Ledger.CurrentBalance(user.ID)
		testutil.AssertNoError(t, err)
		if balance != 500_000 {
			t.Errorf("expected balance 500000, got %d", balance)
		}
	})

	t.Run("monthly cap counts pending, approved and completed", func(t *testing.T) {
		user := testutil.CreateTestUser(t, env.DB)
		method := testutil.CreateTestPaymentMethod(t, env.DB, user.ID)
		testutil.CreateTestTransaction(t, env.DB, user.ID, models.TransactionDeposit, 5_000_000)

		_, err := env.Withdrawals.Request(user.ID, method.ID, 1_500_000)
		testutil.AssertNoError(t, err)

		_, err = env.Withdrawals.Request(user.ID, method.ID, 600_000)
		testutil.AssertAppError(t, err, "MONTHLY_LIMIT_EXCEEDED")

		// Up to the cap is still fine.
		_, err = env.Withdrawals.Request(user.ID, method.ID, 500_000)
		testutil.AssertNoError(t, err)
	})
}

func TestProcessWithdrawal(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestAdmin(t, env.DB)
	user := testutil.CreateTestUser(t, env.DB)
	method := testutil.CreateTestPaymentMethod(t, env.DB, user.ID)
	testutil.CreateTestTransaction(t, env.DB, user.ID, models.TransactionDeposit, 500_000)

	req, err := env.Withdrawals.Request(user.ID, method.ID, 200_000)
	testutil.AssertNoError(t, err)

	// Completing a pending request skips a step.
	_, err = env.Withdrawals.Process(admin.ID, req.ID, "complete", "")
	testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")

	approved, err := env.Withdrawals.Process(admin.ID, req.ID, "approve", "ok")
	testutil.AssertNoError(t, err)
	if approved.Status != models.WithdrawalApproved {
		t.Errorf("expected approved, got %s", approved.Status)
	}

	completed, err := env.Withdrawals.Process(admin.ID, req.ID, "complete", "")
	testutil.AssertNoError(t, err)
	if completed.Status != models.WithdrawalCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}

	// Settlement is the moment the ledger is debited.
	balance, err := env.Ledger.CurrentBalance(user.ID)
	testutil.AssertNoError(t, err)
	if balance != 300_000 {
		t.Errorf("expected balance 300000 after settlement, got %d", balance)
	}
	available, err := env.Ledger.AvailableBalance(nil, user.ID)
	testutil.AssertNoError(t, err)
	if available != 300_000 {
		t.Errorf("expected reservation released, got %d", available)
	}

	var entry models.Transaction
	if err := env.DB.Where("user_id = ? AND type = ?", user.ID, models.TransactionWithdraw).
		First(&entry).Error; err != nil {
		t.Fatalf("expected a withdraw entry: %v", err)
	}
	if entry.Amount != 200_000 {
		t.Errorf("expected entry amount 200000, got %d", entry.Amount)
	}

	// Terminal states accept no further actions.
	_, err = env.Withdrawals.Process(admin.ID, req.ID, "reject", "")
	testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
}

func TestProcessWithdrawal_RejectReleasesReservation(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestAdmin(t, env.DB)
	user := testutil.CreateTestUser(t, env.DB)
	method := testutil.CreateTestPaymentMethod(t, env.DB, user.ID)
	testutil.CreateTestTransaction(t, env.DB, user.ID, models.TransactionDeposit, 500_000)

	req, err := env.Withdrawals.Request(user.ID, method.ID, 200_000)
	testutil.AssertNoError(t, err)

	rejected, err := env.Withdrawals.Process(admin.ID, req.ID, "reject", "no")
	testutil.AssertNoError(t, err)
	if rejected.Status != models.WithdrawalRejected {
		t.Errorf("expected rejected, got %s", rejected.Status)
	}

	available, err := env.Ledger.AvailableBalance(nil, user.ID)
	testutil.AssertNoError(t, err)
	if available != 500_000 {
		t.Errorf("expected full availability restored, got %d", available)
	}
}
