// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Fidiestro/sanse-backend/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("loan_term", validateLoanTerm)
		_ = v.RegisterValidation("payment_method_type", validatePaymentMethodType)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("process_action", validateProcessAction)
	}
}

func validateLoanTerm(fl validator.FieldLevel) bool {
	return models.ValidLoanTerm(int(fl.Field().Int()))
}

func validatePaymentMethodType(fl validator.FieldLevel) bool {
	switch models.PaymentMethodType(fl.Field().String()) {
	case models.PaymentMethodNequi, models.PaymentMethodDaviplata, models.PaymentMethodBankAccount:
		return true
	}
	return false
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch models.TransactionType(fl.Field().String()) {
	case models.TransactionDeposit, models.TransactionWithdraw, models.TransactionPayment,
		models.TransactionInterest, models.TransactionProfit, models.TransactionLoan,
		models.TransactionInvestmentReturn, models.TransactionInvestmentWithdrawal:
		return true
	}
	return false
}

func validateProcessAction(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "approve", "reject", "complete", "mark_paid", "mark_overdue":
		return true
	}
	return false
}
