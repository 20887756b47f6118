package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
	"github.com/Fidiestro/sanse-backend/internal/services"
)

// DepositHandler exposes the deposit workflow.
type DepositHandler struct {
	deposits services.DepositServicer
}

// NewDepositHandler creates a new DepositHandler
func NewDepositHandler(deposits services.DepositServicer) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

// DepositRequestPayload represents the deposit claim payload
type DepositRequestPayload struct {
	Amount     int64  `json:"amount" binding:"required,gt=0"`
	Method     string `json:"method" binding:"max=40"`
	ProofImage string `json:"proof_image" binding:"required,max=500"`
	Note       string `json:"note" binding:"max=500"`
}

// Request opens a deposit claim
// @Summary     Request a deposit
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DepositRequestPayload true "Deposit data with proof"
// @Success     201 {object} models.DepositRequest
// @Failure     400 {object} ErrorResponse "Pending limit reached or below minimum"
// @Router      /deposits [post]
func (h *DepositHandler) Request(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req DepositRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	dr, err := h.deposits.Request(userID, req.Amount, req.Method, req.ProofImage, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dr)
}

// List returns the caller's deposit claims
// @Summary     List my deposits
// @Tags        deposits
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.DepositRequest
// @Router      /deposits [get]
func (h *DepositHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	reqs, err := h.deposits.ListMy(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// AdminList returns deposit claims for review
// @Summary     List deposit requests
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "Status filter"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.DepositRequest]
// @Router      /admin/deposits [get]
func (h *DepositHandler) AdminList(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	var status *models.DepositStatus
	if v := c.Query("status"); v != "" {
		st := models.DepositStatus(v)
		status = &st
	}
	resp, err := h.deposits.ListByStatus(status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Process resolves a deposit claim (admin)
// @Summary     Process a deposit request
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Deposit request ID"
// @Param       request body ProcessRequest true "Decision"
// @Success     200 {object} models.DepositRequest
// @Failure     409 {object} ErrorResponse "Already processed"
// @Router      /admin/deposits/{id} [post]
func (h *DepositHandler) Process(c *gin.Context) {
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
	dr, err := h.deposits.Process(adminID, id, req.Action, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dr)
}
