package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fidiestro/sanse-backend/internal/services"
)

// ReferralHandler exposes the referral program read surface.
type ReferralHandler struct {
	referrals services.ReferralServicer
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(referrals services.ReferralServicer) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// Summary returns the caller's referral code, referred accounts and commissions
// @Summary     Get my referral summary
// @Tags        referrals
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.ReferralSummary
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /referrals [get]
func (h *ReferralHandler) Summary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	summary, err := h.referrals.MySummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
