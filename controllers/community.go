package controllers

import (
	"net/http"
	"strings"

	"sevaconnect-backend/services"

	"github.com/gin-gonic/gin"
)

// GetMessageCounts answers ?bookingIds=a,b with a count per booking.
func (h *Handler) GetMessageCounts(c *gin.Context) {
	var ids []string
	if raw := c.Query("bookingIds"); raw != "" {
		ids = strings.Split(raw, ",")
	}
	counts, err := h.Messaging.Counts(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) GetMessages(c *gin.Context) {
	msgs, err := h.Messaging.List(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var input services.MessageInput
	if !bindJSON(c, &input) {
		return
	}
	msg, err := h.Messaging.Send(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) GetMaidReviews(c *gin.Context) {
	reviews, err := h.Reviews.ListForMaid(c.Request.Context(), c.Param("maidId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) AddReview(c *gin.Context) {
	var input services.ReviewInput
	if !bindJSON(c, &input) {
		return
	}
	if _, err := h.Reviews.Add(c.Request.Context(), input); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}
