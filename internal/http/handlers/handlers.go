package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/rentora/backend/internal/db"
	"github.com/rentora/backend/internal/errs"
	"github.com/rentora/backend/internal/geo"
	"github.com/rentora/backend/internal/matching"
	"github.com/rentora/backend/internal/models"
)

type Handler struct {
	Store          *db.Store
	Matcher        *matching.Service
	Geocoder       geo.Geocoder
	Validator      *validator.Validate
	Logger         zerolog.Logger
	AdminKey       string
	CountryDefault string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary List properties
// @Tags properties
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/properties [get]
func (h *Handler) PropertiesList(c *gin.Context) {
	items, err := h.Store.ListProperties(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list properties", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) PropertyDetails(c *gin.Context) {
	property, err := h.Store.GetProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrPropertyNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Property not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get property", err.Error())
		return
	}
	c.JSON(http.StatusOK, property)
}

// @Summary List providers
// @Tags providers
// @Produce json
// @Param category query string false "Specialty category"
// @Param active query string false "Only active providers"
// @Success 200 {object} map[string]any
// @Router /api/providers [get]
func (h *Handler) ProvidersList(c *gin.Context) {
	category := c.Query("category")
	if category != "" {
		parsed, err := models.ParseCategory(category)
		if err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid category", err.Error())
			return
		}
		category = string(parsed)
	}
	activeOnly := c.Query("active") == "1" || c.Query("active") == "true"

	items, err := h.Store.ListProviders(c.Request.Context(), category, activeOnly)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list providers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Refresh provider performance
// @Tags providers
// @Produce json
// @Param id path string true "Provider ID"
// @Param property_id query string true "Property ID"
// @Success 200 {object} map[string]any
// @Router /api/providers/{id}/performance/refresh [post]
func (h *Handler) ProviderPerformanceRefresh(c *gin.Context) {
	providerID := c.Param("id")
	propertyID := c.Query("property_id")
	if propertyID == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "property_id is required", nil)
		return
	}

	if _, err := h.Store.GetProvider(c.Request.Context(), providerID); err != nil {
		if errors.Is(err, errs.ErrProviderNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Provider not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load provider", err.Error())
		return
	}

	if err := h.Matcher.UpdateProviderPerformance(c.Request.Context(), providerID, propertyID); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to refresh performance", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
