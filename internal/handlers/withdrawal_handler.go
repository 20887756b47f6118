package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
	"github.com/Fidiestro/sanse-backend/internal/services"
)

// WithdrawalHandler exposes payment methods and the withdrawal workflow.
type WithdrawalHandler struct {
	withdrawals services.WithdrawalServicer
}

// NewWithdrawalHandler creates a new WithdrawalHandler
func NewWithdrawalHandler(withdrawals services.WithdrawalServicer) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// PaymentMethodRequest represents the payout destination payload
type PaymentMethodRequest struct {
	Type           string `json:"type" binding:"required,payment_method_type"`
	Label          string `json:"label" binding:"max=50"`
	Phone          string `json:"phone" binding:"max=30"`
	AccountNumber  string `json:"account_number" binding:"max=40"`
	AccountType    string `json:"account_type" binding:"max=20"`
	BankName       string `json:"bank_name" binding:"max=60"`
	HolderName     string `json:"holder_name" binding:"required,max=150"`
	HolderDocument string `json:"holder_document" binding:"required,max=30"`
	IsDefault      bool   `json:"is_default"`
}

// WithdrawalRequestPayload represents the withdrawal request payload
type WithdrawalRequestPayload struct {
	PaymentMethodID uint  `json:"payment_method_id" binding:"required"`
	Amount          int64 `json:"amount" binding:"required,gt=0"`
}

// ProcessRequest represents an admin decision payload
type ProcessRequest struct {
	Action string `json:"action" binding:"required,process_action"`
	Notes  string `json:"notes" binding:"max=500"`
}

// AddPaymentMethod registers a payout destination
// @Summary     Add a payment method
// @Tags        withdrawals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PaymentMethodRequest true "Payment method"
// @Success     201 {object} models.PaymentMethod
// @Failure     400 {object} ErrorResponse "Limit reached or invalid"
// @Router      /payment-methods [post]
func (h *WithdrawalHandler) AddPaymentMethod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	method, err := h.withdrawals.AddPaymentMethod(userID, &models.PaymentMethod{
		Type:           models.PaymentMethodType(req.Type),
		Label:          req.Label,
		Phone:          req.Phone,
		AccountNumber:  req.AccountNumber,
		AccountType:    req.AccountType,
		BankName:       req.BankName,
		HolderName:     req.HolderName,
		HolderDocument: req.HolderDocument,
		IsDefault:      req.IsDefault,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, method)
}

// ListPaymentMethods returns the caller's payout destinations
// @Summary     List my payment methods
// @Tags        withdrawals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.PaymentMethod
// @Router      /payment-methods [get]
func (h *WithdrawalHandler) ListPaymentMethods(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	methods, err := h.withdrawals.ListPaymentMethods(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, methods)
}

// SetDefaultPaymentMethod marks a destination as default
// @Summary     Set default payment method
// @Tags        withdrawals
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Payment method ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /payment-methods/{id}/default [put]
func (h *WithdrawalHandler) SetDefaultPaymentMethod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.withdrawals.SetDefaultPaymentMethod(userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Default updated"})
}

// DeletePaymentMethod removes a destination
// @Summary     Delete a payment method
// @Tags        withdrawals
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Payment method ID"
// @Success     200 {object} map[string]string
// @Failure     409 {object} ErrorResponse "Has pending withdrawals"
// @Router      /payment-methods/{id} [delete]
func (h *WithdrawalHandler) DeletePaymentMethod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.withdrawals.DeletePaymentMethod(userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment method removed"})
}

// Request opens a withdrawal request
// @Summary     Request a withdrawal
// @Tags        withdrawals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body WithdrawalRequestPayload true "Withdrawal data"
// @Success     201 {object} models.WithdrawalRequest
// @Failure     400 {object} ErrorResponse "Limit exceeded or insufficient balance"
// @Router      /withdrawals [post]
func (h *WithdrawalHandler) Request(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req WithdrawalRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	wr, err := h.withdrawals.Request(userID, req.PaymentMethodID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wr)
}

// List returns the caller's withdrawal requests
// @Summary     List my withdrawals
// @Tags        withdrawals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.WithdrawalRequest
// @Router      /withdrawals [get]
func (h *WithdrawalHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	reqs, err := h.withdrawals.ListMy(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// AdminList returns withdrawal requests for review
// @Summary     List withdrawal requests
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "Status filter"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.WithdrawalRequest]
// @Router      /admin/withdrawals [get]
func (h *WithdrawalHandler) AdminList(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var status *models.WithdrawalStatus
	if v := c.Query("status"); v != "" {
		st := models.WithdrawalStatus(v)
		status = &st
	}
	resp, err := h.withdrawals.ListByStatus(status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Process advances a withdrawal request (admin)
// @Summary     Process a withdrawal request
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Withdrawal request ID"
// @Param       request body ProcessRequest true "Decision"
// @Success     200 {object} models.WithdrawalRequest
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Router      /admin/withdrawals/{id} [post]
func (h *WithdrawalHandler) Process(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	wr, err := h.withdrawals.Process(adminID, id, req.Action, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, wr)
}
