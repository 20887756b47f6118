package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
	"github.com/Fidiestro/sanse-backend/internal/services"
)

// AdminHandler exposes platform-wide administrative operations.
type AdminHandler struct {
	admin       services.AdminServicer
	users       services.UserServicer
	ledger      services.LedgerServicer
	investments services.InvestmentServicer
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin services.AdminServicer, users services.UserServicer, ledger services.LedgerServicer, investments services.InvestmentServicer) *AdminHandler {
	return &AdminHandler{admin: admin, users: users, ledger: ledger, investments: investments}
}

// SetUserStatusRequest represents the block/unblock payload
type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active blocked"`
}

// ProcessRegistrationRequest represents the registration decision payload
type ProcessRegistrationRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
	Notes  string `json:"notes" binding:"max=500"`
}

// ManualTransactionRequest represents the manual ledger adjustment payload
type ManualTransactionRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	Type        string `json:"type" binding:"required,transaction_type"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=500"`
}

// Stats returns platform-wide counters
// @Summary     Get platform stats
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.AdminStats
// @Router      /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecentTransactions returns the latest ledger entries across all users
// @Summary     List recent transactions
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Max entries (default 20)"
// @Success     200 {array} models.Transaction
// @Router      /admin/transactions/recent [get]
func (h *AdminHandler) RecentTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	txs, err := h.admin.RecentTransactions(limit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// ListUsers returns all accounts
// @Summary     List users
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.User]
// @Router      /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	resp, err := h.users.ListUsers(page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UserDetail returns one account with balances and history
// @Summary     Get a user's detail
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Success     200 {object} services.UserDetail
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /admin/users/{id} [get]
func (h *AdminHandler) UserDetail(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	detail, err := h.admin.UserDetail(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// SetUserStatus blocks or unblocks an account
// @Summary     Set a user's status
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "User ID"
// @Param       request body SetUserStatusRequest true "Status"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /admin/users/{id}/status [put]
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
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
	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if err := h.users.SetUserStatus(adminID, id, models.UserStatus(req.Status)); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User status updated"})
}

// ListRegistrations returns signup requests for review
// @Summary     List registration requests
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "Status filter"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.RegistrationRequest]
// @Router      /admin/registrations [get]
func (h *AdminHandler) ListRegistrations(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var status *models.RegistrationStatus
	if v := c.Query("status"); v != "" {
		st := models.RegistrationStatus(v)
		status = &st
	}
	resp, err := h.users.ListRegistrations(status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessRegistration resolves a signup request
// @Summary     Process a registration request
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Registration request ID"
// @Param       request body ProcessRegistrationRequest true "Decision"
// @Success     200 {object} models.RegistrationRequest
// @Failure     409 {object} ErrorResponse "Already processed"
// @Router      /admin/registrations/{id} [post]
func (h *AdminHandler) ProcessRegistration(c *gin.Context) {
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
	var req ProcessRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	rr, err := h.users.ProcessRegistration(adminID, id, req.Action == "approve", req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rr)
}

// CreateTransaction posts a manual ledger adjustment
// @Summary     Create a manual transaction
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ManualTransactionRequest true "Adjustment"
// @Success     201 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid type"
// @Router      /admin/transactions [post]
func (h *AdminHandler) CreateTransaction(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req ManualTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	tx, err := h.ledger.CreateManualTransaction(adminID, req.UserID, models.TransactionType(req.Type), req.Amount, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// DeleteTransaction removes a ledger entry and re-derives the balance
// @Summary     Delete a transaction
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /admin/transactions/{id} [delete]
func (h *AdminHandler) DeleteTransaction(c *gin.Context) {
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
	if err := h.ledger.DeleteTransaction(adminID, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// DeleteInvestment removes a position and all its ledger entries
// @Summary     Delete an investment
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Investment ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /admin/investments/{id} [delete]
func (h *AdminHandler) DeleteInvestment(c *gin.Context) {
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
	if err := h.investments.DeleteInvestment(adminID, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Investment deleted"})
}

// RecalculateAll re-derives every user's balance from the ledger
// @Summary     Recalculate all balances
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int
// @Router      /admin/balances/recalculate [post]
func (h *AdminHandler) RecalculateAll(c *gin.Context) {
	n, err := h.ledger.RecalculateAll()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recalculated": n})
}
