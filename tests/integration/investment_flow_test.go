package integration

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestInvestmentFlow_DepositInvestReturn(t *testing.T) {
	app := setupApp(t)
	adminToken := app.registerAdmin(t, "admin@test.com", "password123")
	userToken, _ := app.registerUser(t, "investor@test.com", "password123")

	// Step 1: Claim a deposit with proof
	rec := app.request("POST", "/api/v1/deposits",
		`{"amount":500000,"method":"nequi","proof_image":"receipt.jpg"}`, userToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit request failed: %d %s", rec.Code, rec.Body.String())
	}
	deposit := parseJSON(t, rec)
	depositID := int(deposit["id"].(float64))
	if deposit["status"] != "pending" {
		t.Errorf("expected pending deposit, got %v", deposit["status"])
	}

	// Balance is untouched until the claim is approved.
	rec = app.request("GET", "/api/v1/transactions/balance", "", userToken)
	balance := parseJSON(t, rec)
	if balance["current_balance"].(float64) != 0 {
		t.Errorf("expected balance 0 before approval, got %v", balance["current_balance"])
	}

	// Step 2: Admin approves the deposit
	rec = app.request("POST", fmt.Sprintf("/api/v1/admin/deposits/%d", depositID),
		`{"action":"approve"}`, adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit approval failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/transactions/balance", "", userToken)
	balance = parseJSON(t, rec)
	if balance["current_balance"].(float64) != 500000 {
		t.Errorf("expected balance 500000, got %v", balance["current_balance"])
	}

	// Step 3: Open a position in the fixed-term product
	rec = app.request("POST", "/api/v1/investments",
		`{"product_id":"sdtc_6m","amount":200000}`, userToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("investment creation failed: %d %s", rec.Code, rec.Body.String())
	}
	inv := parseJSON(t, rec)
	invID := int(inv["id"].(float64))
	if inv["status"] != "pending_deposit" {
		t.Errorf("expected pending_deposit, got %v", inv["status"])
	}

	// Principal is committed, not spent.
	rec = app.request("GET", "/api/v1/transactions/balance", "", userToken)
	balance = parseJSON(t, rec)
	if balance["current_balance"].(float64) != 500000 {
		t.Errorf("expected current balance unchanged, got %v", balance["current_balance"])
	}
	if balance["available_balance"].(float64) != 300000 {
		t.Errorf("expected available 300000, got %v", balance["available_balance"])
	}

	// Step 4: Confirm the position
	rec = app.request("POST", fmt.Sprintf("/api/v1/investments/%d/confirm", invID), "", userToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm failed: %d %s", rec.Code, rec.Body.String())
	}
	confirmed := parseJSON(t, rec)
	if confirmed["status"] != "active" {
		t.Errorf("expected active, got %v", confirmed["status"])
	}

	// Step 5: Admin posts the monthly return at 3%
	rec = app.request("POST", fmt.Sprintf("/api/v1/admin/investments/%d/returns", invID),
		`{"period_month":"2026-08","rate":3.0}`, adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("return posting failed: %d %s", rec.Code, rec.Body.String())
	}

	// round(200000 * 3%) = 6000 credited as profit
	rec = app.request("GET", "/api/v1/transactions/balance", "", userToken)
	balance = parseJSON(t, rec)
	if balance["current_balance"].(float64) != 506000 {
		t.Errorf("expected balance 506000 after return, got %v", balance["current_balance"])
	}

	// The same period cannot be posted twice.
	rec = app.request("POST", fmt.Sprintf("/api/v1/admin/investments/%d/returns", invID),
		`{"period_month":"2026-08","rate":3.0}`, adminToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate period, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "DUPLICATE_RETURN_PERIOD" {
		t.Errorf("expected DUPLICATE_RETURN_PERIOD, got %v", errObj["code"])
	}
}

func TestInvestmentFlow_InsufficientBalance(t *testing.T) {
	app := setupApp(t)
	userToken, _ := app.registerUser(t, "broke@test.com", "password123")

	rec := app.request("POST", "/api/v1/investments",
		`{"product_id":"sdtc_6m","amount":200000}`, userToken)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "INSUFFICIENT_BALANCE" {
		t.Errorf("expected INSUFFICIENT_BALANCE, got %v", errObj["code"])
	}
}

func TestInvestmentFlow_CancelDuringGrace(t *testing.T) {
	app := setupApp(t)
	adminToken := app.registerAdmin(t, "admin@test.com", "password123")
	userToken, userID := app.registerUser(t, "cancel@test.com", "password123")
	app.fundUser(t, adminToken, userID, 300000)

	rec := app.request("POST", "/api/v1/investments",
		`{"product_id":"sdtc_6m","amount":150000}`, userToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("investment creation failed: %d %s", rec.Code, rec.Body.String())
	}
	inv := parseJSON(t, rec)
	invID := int(inv["id"].(float64))

	rec = app.request("DELETE", fmt.Sprintf("/api/v1/investments/%d", invID), "", userToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel failed: %d %s", rec.Code, rec.Body.String())
	}

	// The committed principal is available again.
	rec = app.request("GET", "/api/v1/transactions/balance", "", userToken)
	balance := parseJSON(t, rec)
	if balance["available_balance"].(float64) != 300000 {
		t.Errorf("expected available 300000 after cancel, got %v", balance["available_balance"])
	}
}

func TestInvestmentFlow_ProductCatalogIsPublic(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/investments/products", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sdtc_6m") {
		t.Errorf("expected catalog to list sdtc_6m, got %s", rec.Body.String())
	}
}
