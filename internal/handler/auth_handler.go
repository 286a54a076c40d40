package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gotimer/backend/internal/models"
	"gotimer/backend/internal/service"
)

// region --- DTOs ---

// RegisterRequest defines the structure for user registration.
type RegisterRequest struct {
	Username *string `json:"username" example:"alice"`
	Email    *string `json:"email" example:"alice@example.com"`
	Password *string `json:"password" example:"secret1"`
}

// LoginRequest defines the structure for user login.
type LoginRequest struct {
	Username *string `json:"username" example:"alice"`
	Password *string `json:"password" example:"secret1"`
}

// UserResponse wraps an account with a message.
type UserResponse struct {
	Message string         `json:"message" example:"Login successful"`
	User    models.Account `json:"user"`
}

// GuestUser is the identity handed to a guest.
type GuestUser struct {
	ID       string `json:"id" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
	Username string `json:"username" example:"Guest_0f8fad5b"`
	IsGuest  bool   `json:"is_guest" example:"true"`
}

// GuestResponse is returned by the guest login.
type GuestResponse struct {
	Message string    `json:"message" example:"Guest session created"`
	User    GuestUser `json:"user"`
}

// endregion

// region --- Auth Handlers ---

// Register godoc
// @Summary      Register a new user
// @Description  Creates an account and signs the session in as it.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterRequest true "Registration Info"
// @Success      201  {object}  UserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if !bind(c, &input) {
		return
	}
	sess := currentSession(c)

	account, err := h.accounts.Register(c.Request.Context(), sess, toRegisterInput(input))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.commitAfterWrite(c, sess)
	c.JSON(http.StatusCreated, UserResponse{Message: "User registered successfully", User: *account})
}

// Login godoc
// @Summary      Log in a user
// @Description  Verifies username and password and signs the session in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginRequest true "Login Info"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  ErrorResponse "Missing username or password"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	if !bind(c, &input) {
		return
	}
	sess := currentSession(c)

	account, err := h.accounts.Login(c.Request.Context(), sess, input.Username, input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !h.commit(c, sess) {
		return
	}
	c.JSON(http.StatusOK, UserResponse{Message: "Login successful", User: *account})
}

// GuestLogin godoc
// @Summary      Start a guest session
// @Description  Signs the session in as a new guest. Guests are never persisted.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  GuestResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/guest [post]
func (h *Handler) GuestLogin(c *gin.Context) {
	sess := currentSession(c)
	guest := h.accounts.GuestLogin(sess)
	if !h.commit(c, sess) {
		return
	}
	c.JSON(http.StatusOK, GuestResponse{
		Message: "Guest session created",
		User:    GuestUser{ID: guest.ID, Username: guest.Name, IsGuest: true},
	})
}

// Logout godoc
// @Summary      Log out
// @Description  Clears the session. Succeeds without a session too.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	sess := currentSession(c)
	h.accounts.Logout(sess)
	if !h.commit(c, sess) {
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// Me godoc
// @Summary      Get the current user
// @Description  Returns the session identity, merged with the account for registered users.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, err := h.accounts.CurrentUser(c.Request.Context(), currentSession(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	body := gin.H{
		"user_id":  user.Identity.UserID(),
		"username": user.Identity.DisplayName(),
		"is_guest": user.Identity.IsGuest(),
	}
	if a := user.Account; a != nil {
		body["id"] = a.ID
		body["username"] = a.Username
		body["email"] = a.Email
		body["created_at"] = a.CreatedAt
	}
	c.JSON(http.StatusOK, body)
}

// endregion

func toRegisterInput(r RegisterRequest) service.RegisterInput {
	return service.RegisterInput{Username: r.Username, Email: r.Email, Password: r.Password}
}
