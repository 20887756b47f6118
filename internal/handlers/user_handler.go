package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/services"
)

// UserHandler handles profile requests.
type UserHandler struct {
	users services.UserServicer
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users services.UserServicer) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateProfileRequest represents the profile update payload
type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"max=150"`
	Phone    string `json:"phone" binding:"max=30"`
}

// ChangePasswordRequest represents the password change payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}

// MonthlyGoalRequest represents the savings goal payload
type MonthlyGoalRequest struct {
	Goal int64 `json:"goal" binding:"min=0"`
}

// Me returns the authenticated user's profile
// @Summary     Get my profile
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.User
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	user, err := h.users.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the mutable profile fields
// @Summary     Update my profile
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Profile fields"
// @Success     200 {object} models.User
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /users/me [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	user, err := h.users.UpdateProfile(userID, req.FullName, req.Phone)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the account password
// @Summary     Change my password
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChangePasswordRequest true "Passwords"
// @Success     200 {object} map[string]string
// @Failure     401 {object} ErrorResponse "Wrong current password"
// @Router      /users/me/password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if err := h.users.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// SetMonthlyGoal updates the dashboard savings goal
// @Summary     Set my monthly goal
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MonthlyGoalRequest true "Goal"
// @Success     200 {object} map[string]string
// @Router      /users/me/goal [put]
func (h *UserHandler) SetMonthlyGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req MonthlyGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if err := h.users.SetMonthlyGoal(userID, req.Goal); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goal updated"})
}
