package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
	"github.com/Fidiestro/sanse-backend/internal/services"
)

// LoanHandler exposes credit scoring and the loan workflow.
type LoanHandler struct {
	loans services.LoanServicer
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loans services.LoanServicer) *LoanHandler {
	return &LoanHandler{loans: loans}
}

// LoanRequestPayload represents the loan application payload
type LoanRequestPayload struct {
	Amount     int64  `json:"amount" binding:"required,gt=0"`
	TermMonths int    `json:"term_months" binding:"required,loan_term"`
	Purpose    string `json:"purpose" binding:"max=500"`
}

// LoanPaymentRequest represents a repayment payload
type LoanPaymentRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// ProcessLoanRequest represents the admin decision payload
type ProcessLoanRequest struct {
	Action         string `json:"action" binding:"required"`
	ApprovedAmount *int64 `json:"approved_amount"`
	Notes          string `json:"notes" binding:"max=500"`
}

// Score returns the caller's credit score breakdown
// @Summary     Get my credit score
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.CreditScore
// @Router      /loans/score [get]
func (h *LoanHandler) Score(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	score, err := h.loans.Score(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

// Request opens a loan application
// @Summary     Request a loan
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body LoanRequestPayload true "Loan data"
// @Success     201 {object} models.LoanRequest
// @Failure     400 {object} ErrorResponse "Score too low or open loan exists"
// @Router      /loans [post]
func (h *LoanHandler) Request(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req LoanRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	loan, err := h.loans.Request(userID, req.Amount, req.TermMonths, req.Purpose)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

// List returns the caller's loans
// @Summary     List my loans
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.LoanRequest
// @Router      /loans [get]
func (h *LoanHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	loans, err := h.loans.ListMy(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, loans)
}

// Pay records a repayment against an active loan
// @Summary     Pay a loan installment
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Param       request body LoanPaymentRequest true "Payment amount"
// @Success     200 {object} models.LoanRequest
// @Failure     400 {object} ErrorResponse "Below minimum or insufficient balance"
// @Router      /loans/{id}/pay [post]
func (h *LoanHandler) Pay(c *gin.Context) {
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
	var req LoanPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	loan, err := h.loans.Pay(userID, id, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// AdminList returns loan applications for review
// @Summary     List loan requests
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "Status filter"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.LoanRequest]
// @Router      /admin/loans [get]
func (h *LoanHandler) AdminList(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var status *models.LoanStatus
	if v := c.Query("status"); v != "" {
		st := models.LoanStatus(v)
		status = &st
	}
	resp, err := h.loans.ListByStatus(status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Process resolves a loan application (admin)
// @Summary     Process a loan request
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Param       request body ProcessLoanRequest true "Decision"
// @Success     200 {object} models.LoanRequest
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Router      /admin/loans/{id} [post]
func (h *LoanHandler) Process(c *gin.Context) {
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
	var req ProcessLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	loan, err := h.loans.Process(adminID, id, req.Action, req.ApprovedAmount, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}
