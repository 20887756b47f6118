package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/services"
)

// InvestmentHandler exposes the investment lifecycle.
type InvestmentHandler struct {
	investments services.InvestmentServicer
}

// NewInvestmentHandler creates a new InvestmentHandler
func NewInvestmentHandler(investments services.InvestmentServicer) *InvestmentHandler {
	return &InvestmentHandler{investments: investments}
}

// CreateInvestmentRequest represents the create payload
type CreateInvestmentRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

// AddCapitalRequest represents the top-up payload
type AddCapitalRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// PostReturnRequest represents the monthly return payload
type PostReturnRequest struct {
	PeriodMonth string  `json:"period_month" binding:"required,len=7"`
	Rate        float64 `json:"rate" binding:"min=0,max=100"`
}

// Products lists the product catalog
// @Summary     List investment products
// @Tags        investments
// @Produce     json
// @Success     200 {array} models.Product
// @Router      /investments/products [get]
func (h *InvestmentHandler) Products(c *gin.Context) {
	c.JSON(http.StatusOK, h.investments.Products())
}

// Create opens a new position
// @Summary     Create an investment
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateInvestmentRequest true "Investment data"
// @Success     201 {object} models.Investment
// @Failure     400 {object} ErrorResponse "Insufficient balance or below minimum"
// @Router      /investments [post]
func (h *InvestmentHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	inv, err := h.investments.Create(userID, req.ProductID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// List returns the caller's positions
// @Summary     List my investments
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Investment
// @Router      /investments [get]
func (h *InvestmentHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	invs, err := h.investments.ListMy(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invs)
}

// Get returns one position
// @Summary     Get an investment
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Investment ID"
// @Success     200 {object} models.Investment
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /investments/{id} [get]
func (h *InvestmentHandler) Get(c *gin.Context) {
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
	inv, err := h.investments.Get(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// Confirm activates a position inside the grace window
// @Summary     Confirm an investment
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Investment ID"
// @Success     200 {object} models.Investment
// @Failure     409 {object} ErrorResponse "Grace window elapsed"
// @Router      /investments/{id}/confirm [post]
func (h *InvestmentHandler) Confirm(c *gin.Context) {
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
	inv, err := h.investments.Confirm(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// Cancel removes a position inside the grace window
// @Summary     Cancel an investment
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Investment ID"
// @Success     200 {object} map[string]string
// @Failure     409 {object} ErrorResponse "Grace window elapsed"
// @Router      /investments/{id} [delete]
func (h *InvestmentHandler) Cancel(c *gin.Context) {
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
	if err := h.investments.Cancel(userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Investment cancelled"})
}

// AddCapital tops up an active position
// @Summary     Add capital to an investment
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Investment ID"
// @Param       request body AddCapitalRequest true "Amount"
// @Success     200 {object} models.Investment
// @Failure     400 {object} ErrorResponse "Insufficient balance or not active"
// @Router      /investments/{id}/capital [post]
func (h *InvestmentHandler) AddCapital(c *gin.Context) {
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
	var req AddCapitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	inv, err := h.investments.AddCapital(userID, id, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// Withdraw closes a matured position
// @Summary     Withdraw matured capital
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Investment ID"
// @Success     200 {object} models.Investment
// @Failure     400 {object} ErrorResponse "Still locked"
// @Router      /investments/{id}/withdraw [post]
func (h *InvestmentHandler) Withdraw(c *gin.Context) {
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
	inv, err := h.investments.Withdraw(userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// PostReturn posts a monthly return (admin)
// @Summary     Post a monthly return
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Investment ID"
// @Param       request body PostReturnRequest true "Period and rate"
// @Success     201 {object} models.InvestmentReturn
// @Failure     409 {object} ErrorResponse "Duplicate period"
// @Router      /admin/investments/{id}/returns [post]
func (h *InvestmentHandler) PostReturn(c *gin.Context) {
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
	var req PostReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	ret, err := h.investments.PostMonthlyReturn(adminID, id, req.PeriodMonth, req.Rate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ret)
}
