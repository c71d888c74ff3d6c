package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SkillsInput struct {
	Skills []string `json:"skills"`
}

// LeaveInput sets or clears a leave. A missing or null leaveType clears
// the date.
type LeaveInput struct {
	Date      string  `json:"date" binding:"required"`
	LeaveType *string `json:"leaveType"`
}

func (h *Handler) GetSocietyUsers(c *gin.Context) {
	users, err := h.Users.ListBySociety(c.Request.Context(), c.Param("societyId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	if !selfOrAdmin(c, id) {
		return
	}
	patch, ok := bindPatch(c)
	if !ok {
		return
	}
	user, err := h.Users.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) VerifyUser(c *gin.Context) {
	if _, err := h.Users.Verify(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

func (h *Handler) UpdateSkills(c *gin.Context) {
	id := c.Param("id")
	if !selfOrAdmin(c, id) {
		return
	}
	var input SkillsInput
	if !bindJSON(c, &input) {
		return
	}
	if _, err := h.Users.UpdateSkills(c.Request.Context(), id, input.Skills); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

func (h *Handler) SetLeave(c *gin.Context) {
	id := c.Param("id")
	if !selfOrAdmin(c, id) {
		return
	}
	var input LeaveInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.Users.SetLeave(c.Request.Context(), id, input.Date, input.LeaveType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaves": user.Leaves})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}
