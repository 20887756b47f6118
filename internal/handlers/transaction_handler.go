package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
	"github.com/Fidiestro/sanse-backend/internal/services"
)

// TransactionHandler exposes the ledger read surface.
type TransactionHandler struct {
	ledger services.LedgerServicer
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ledger services.LedgerServicer) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// List returns the caller's ledger entries
// @Summary     List my transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       type query string false "Transaction type"
// @Param       from query string false "From date (RFC3339)"
// @Param       to query string false "To date (RFC3339)"
// @Success     200 {object} pagination.PageResponse[models.Transaction]
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.TransactionFilter
	if v := c.Query("type"); v != "" {
		t := models.TransactionType(v)
		filter.Type = &t
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid from date"))
			return
		}
		filter.FromDate = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid to date"))
			return
		}
		filter.ToDate = &to
	}

	resp, err := h.ledger.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Balance returns the caller's current and available balance
// @Summary     Get my balance
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int64
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions/balance [get]
func (h *TransactionHandler) Balance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	current, err := h.ledger.CurrentBalance(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	available, err := h.ledger.AvailableBalance(nil, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"current_balance":   current,
		"available_balance": available,
	})
}

// History returns the caller's balance snapshots
// @Summary     Get my balance history
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       days query int false "Days of history (default 30)"
// @Success     200 {array} models.BalanceSnapshot
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions/history [get]
func (h *TransactionHandler) History(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	snaps, err := h.ledger.BalanceHistory(userID, days)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snaps)
}
