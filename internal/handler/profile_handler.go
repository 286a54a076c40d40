package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gotimer/backend/internal/service"
)

// region --- DTOs ---

// UpdateProfileRequest carries the fields to change; omitted fields stay.
type UpdateProfileRequest struct {
	Username *string `json:"username" example:"alicia"`
	Email    *string `json:"email" example:"alicia@example.com"`
}

// ChangePasswordRequest defines the structure for a password change.
type ChangePasswordRequest struct {
	CurrentPassword *string `json:"current_password" example:"secret1"`
	NewPassword     *string `json:"new_password" example:"secret2"`
}

// endregion

// region --- Profile Handlers ---

// GetProfile godoc
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  models.Account
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Guest session"
// @Failure      404  {object}  ErrorResponse
// @Router       /profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	account, err := h.accounts.GetProfile(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// UpdateProfile godoc
// @Summary      Update own profile
// @Description  Changes username and/or email. A new username shows in the session at once.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        input body UpdateProfileRequest true "Fields to change"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  ErrorResponse "Duplicate or invalid value"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var input UpdateProfileRequest
	if !bind(c, &input) {
		return
	}
	sess := currentSession(c)

	account, err := h.accounts.UpdateProfile(c.Request.Context(), sess, service.ProfileUpdate{
		Username: input.Username,
		Email:    input.Email,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.commitAfterWrite(c, sess)
	c.JSON(http.StatusOK, UserResponse{Message: "Profile updated successfully", User: *account})
}

// ChangePassword godoc
// @Summary      Change own password
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        input body ChangePasswordRequest true "Passwords"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /change-password [post]
func (h *Handler) ChangePassword(c *gin.Context) {
	var input ChangePasswordRequest
	if !bind(c, &input) {
		return
	}
	err := h.accounts.ChangePassword(c.Request.Context(), currentSession(c), input.CurrentPassword, input.NewPassword)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

// DeleteAccount godoc
// @Summary      Delete own account
// @Description  Deletes the account with all its games and moves and ends the session.
// @Tags         profile
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /delete-account [delete]
func (h *Handler) DeleteAccount(c *gin.Context) {
	sess := currentSession(c)
	if err := h.accounts.DeleteAccount(c.Request.Context(), sess); err != nil {
		h.fail(c, err)
		return
	}
	h.commitAfterWrite(c, sess)
	c.JSON(http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}

// endregion
