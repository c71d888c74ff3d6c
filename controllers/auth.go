package controllers

import (
	"net/http"

	"sevaconnect-backend/services"
	"sevaconnect-backend/utils"

	"github.com/gin-gonic/gin"
)

type LoginInput struct {
	Username string `json:"username"` // username or phone
	Password string `json:"password"`
}

type ResetCodeInput struct {
	Username string `json:"username"`
	OTP      string `json:"otp"`
}

type ChangePasswordInput struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}
	session, err := h.Identity.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SendRegistrationCode validates a sign-up and texts the verification code.
func (h *Handler) SendRegistrationCode(c *gin.Context) {
	var input services.RegistrationRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.Identity.SendRegistrationCode(c.Request.Context(), input); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent via SMS"})
}

func (h *Handler) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.Identity.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      user.ID,
		"message": "Registration successful. Pending society admin approval.",
	})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var input ResetCodeInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.Identity.ForgotPassword(c.Request.Context(), input.Username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent via SMS"})
}

// VerifyResetCode signs the user in after a password reset code.
func (h *Handler) VerifyResetCode(c *gin.Context) {
	var input ResetCodeInput
	if !bindJSON(c, &input) {
		return
	}
	session, err := h.Identity.VerifyResetCode(c.Request.Context(), input.Username, input.OTP)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if !bindJSON(c, &input) {
		return
	}
	userID := c.GetString(utils.ContextUserID)
	if err := h.Identity.ChangePassword(c.Request.Context(), userID, input.Password); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

// Me returns the caller's account.
func (h *Handler) Me(c *gin.Context) {
	user, err := h.Users.Get(c.Request.Context(), c.GetString(utils.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
