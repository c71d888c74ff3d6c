package controllers

import (
	"net/http"

	"sevaconnect-backend/services"

	"github.com/gin-gonic/gin"
)

// GetSocieties is public so the sign-up form can list societies.
func (h *Handler) GetSocieties(c *gin.Context) {
	list, err := h.Societies.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSocietiesWithStats(c *gin.Context) {
	list, err := h.Societies.ListWithStats(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateSociety(c *gin.Context) {
	var input services.SocietyInput
	if !bindJSON(c, &input) {
		return
	}
	created, err := h.Societies.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetSociety(c *gin.Context) {
	society, err := h.Societies.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, society)
}

func (h *Handler) GetSocietyStats(c *gin.Context) {
	stats, err := h.Societies.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetSocietyActivity(c *gin.Context) {
	activity, err := h.Societies.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}
