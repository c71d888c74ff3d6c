// controllers/service.go
package controllers

import (
	"net/http"

	"sevaconnect-backend/services"

	"github.com/gin-gonic/gin"
)

// GetServices lists the catalogue; ?all=true includes inactive entries.
func (h *Handler) GetServices(c *gin.Context) {
	list, err := h.Catalogue.List(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetService(c *gin.Context) {
	svc, err := h.Catalogue.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *Handler) CreateService(c *gin.Context) {
	var input services.ServiceInput
	if !bindJSON(c, &input) {
		return
	}
	svc, err := h.Catalogue.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func (h *Handler) UpdateService(c *gin.Context) {
	patch, ok := bindPatch(c)
	if !ok {
		return
	}
	svc, err := h.Catalogue.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *Handler) DeleteService(c *gin.Context) {
	if err := h.Catalogue.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

// Society offerings

func (h *Handler) GetSocietyServices(c *gin.Context) {
	list, err := h.Offerings.List(c.Request.Context(), c.Query("societyId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSocietyService(c *gin.Context) {
	offering, err := h.Offerings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offering)
}

func (h *Handler) CreateSocietyService(c *gin.Context) {
	var input services.OfferingInput
	if !bindJSON(c, &input) {
		return
	}
	offering, err := h.Offerings.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offering)
}

func (h *Handler) UpdateSocietyService(c *gin.Context) {
	patch, ok := bindPatch(c)
	if !ok {
		return
	}
	offering, err := h.Offerings.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offering)
}

// DeleteSocietyService deactivates the offering; bookings keep referencing it.
func (h *Handler) DeleteSocietyService(c *gin.Context) {
	if err := h.Offerings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	success(c)
}

func (h *Handler) AdoptGenericServices(c *gin.Context) {
	adopted, err := h.Offerings.AdoptGeneric(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, adopted)
}
