package controllers

import (
	"net/http"

	"sevaconnect-backend/models"
	"sevaconnect-backend/services"
	"sevaconnect-backend/utils"

	"github.com/gin-gonic/gin"
)

type OTPInput struct {
	Type string `json:"type"` // start or end
	Code string `json:"code"`
}

type StatusInput struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

// adminOnlyPatchFields may only be edited by admins. Everyone else moves a
// booking through the transition and OTP endpoints.
var adminOnlyPatchFields = []string{"status", "startOtp", "endOtp"}

// redactCodes hides both booking codes from a maid, who must get them from
// the household.
func redactCodes(c *gin.Context, views ...*models.BookingView) {
	if c.GetString(utils.ContextRole) != models.RoleMaid {
		return
	}
	for _, v := range views {
		v.StartOTP = nil
		v.EndOTP = nil
	}
}

func redactList(c *gin.Context, list []models.BookingView) {
	for i := range list {
		redactCodes(c, &list[i])
	}
}

// GetUserBookings lists bookings for a maid or household. The role query
// parameter defaults to the caller's role.
func (h *Handler) GetUserBookings(c *gin.Context) {
	role := c.DefaultQuery("role", c.GetString(utils.ContextRole))
	list, err := h.Bookings.ListForUser(c.Request.Context(), c.Param("userId"), role)
	if err != nil {
		respondError(c, err)
		return
	}
	redactList(c, list)
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSocietyBookings(c *gin.Context) {
	list, err := h.Bookings.ListForSociety(c.Request.Context(), c.Param("societyId"))
	if err != nil {
		respondError(c, err)
		return
	}
	redactList(c, list)
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.Bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	redactCodes(c, b)
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var input services.BookingInput
	if !bindJSON(c, &input) {
		return
	}
	b, err := h.Bookings.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	redactCodes(c, b)
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	patch, ok := bindPatch(c)
	if !ok {
		return
	}
	if role := c.GetString(utils.ContextRole); role == models.RoleMaid || role == models.RoleHousehold {
		for _, field := range adminOnlyPatchFields {
			if _, ok := patch[field]; ok {
				c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorBody{
					Error:  field + " can only be changed by an admin",
					Code:   string(services.KindForbidden),
					Fields: []string{field},
				})
				return
			}
		}
	}
	b, err := h.Bookings.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	redactCodes(c, b)
	c.JSON(http.StatusOK, b)
}

// OverrideBookingStatus is the admin correction path; it ignores the
// lifecycle.
func (h *Handler) OverrideBookingStatus(c *gin.Context) {
	var input StatusInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.Bookings.OverrideStatus(c.Request.Context(), c.Param("id"), input.Status); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

func (h *Handler) TransitionBooking(c *gin.Context) {
	var input StatusInput
	if !bindJSON(c, &input) {
		return
	}
	b, err := h.Bookings.Transition(c.Request.Context(), c.Param("id"), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	redactCodes(c, b)
	c.JSON(http.StatusOK, b)
}

// RequestOTP is called by the maid. The code goes to the household, never
// back to the caller.
func (h *Handler) RequestOTP(c *gin.Context) {
	var input OTPInput
	if !bindJSON(c, &input) {
		return
	}
	if _, err := h.Bookings.RequestOTP(c.Request.Context(), c.Param("id"), input.Type); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

func (h *Handler) CancelOTP(c *gin.Context) {
	var input OTPInput
	if !bindJSON(c, &input) {
		return
	}
	if err := h.Bookings.CancelOTPRequest(c.Request.Context(), c.Param("id"), input.Type); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

// RegenerateOTP lets the household replace a code.
func (h *Handler) RegenerateOTP(c *gin.Context) {
	var input OTPInput
	if !bindJSON(c, &input) {
		return
	}
	if _, err := h.Bookings.RegenerateOTP(c.Request.Context(), c.Param("id"), input.Type); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var input OTPInput
	if !bindJSON(c, &input) {
		return
	}
	status, err := h.Bookings.VerifyOTP(c.Request.Context(), c.Param("id"), input.Type, input.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}
