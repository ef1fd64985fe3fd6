package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rentora/backend/internal/errs"
	"github.com/rentora/backend/internal/models"
)

type CreateIssueRequest struct {
	PropertyID  string `json:"property_id" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Priority    string `json:"priority" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// @Summary Report an issue
// @Tags issues
// @Accept json
// @Produce json
// @Param issue body CreateIssueRequest true "Issue"
// @Success 201 {object} models.Issue
// @Failure 400 {object} map[string]any
// @Router /api/issues [post]
func (h *Handler) IssueCreate(c *gin.Context) {
	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid category", err.Error())
		return
	}
	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid priority", err.Error())
		return
	}

	if _, err := h.Store.GetProperty(c.Request.Context(), req.PropertyID); err != nil {
		if errors.Is(err, errs.ErrPropertyNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Property not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load property", err.Error())
		return
	}

	issue, err := h.Store.CreateIssue(c.Request.Context(), models.Issue{
		PropertyID:  req.PropertyID,
		Category:    category,
		Priority:    priority,
		Status:      models.StatusOpen,
		Title:       req.Title,
		Description: req.Description,
		ReportedAt:  time.Now().UTC(),
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create issue", err.Error())
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (h *Handler) IssuesList(c *gin.Context) {
	status := c.Query("status")
	if status != "" {
		parsed, err := models.ParseStatus(status)
		if err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status", err.Error())
			return
		}
		status = string(parsed)
	}
	category := c.Query("category")
	priority := c.Query("priority")
	propertyID := c.Query("property_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListIssues(c.Request.Context(), status, category, priority, propertyID, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list issues", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) IssueDetails(c *gin.Context) {
	details, err := h.Store.GetIssueDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrIssueNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get issue", err.Error())
		return
	}
	c.JSON(http.StatusOK, details)
}

// @Summary Rank providers for an issue
// @Tags matching
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} map[string]any
// @Router /api/issues/{id}/matches [get]
func (h *Handler) IssueMatches(c *gin.Context) {
	issue, err := h.Store.GetIssue(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrIssueNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load issue", err.Error())
		return
	}

	scores, err := h.Matcher.FindBestProviders(c.Request.Context(), issue.PropertyID, issue.Category, issue.Priority)
	if err != nil {
		h.writeMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue_id": issue.ID, "matches": scores})
}

// @Summary Rank providers for a property
// @Tags matching
// @Produce json
// @Param id path string true "Property ID"
// @Param category query string true "Issue category"
// @Param priority query string true "Issue priority"
// @Success 200 {object} map[string]any
// @Router /api/properties/{id}/matches [get]
func (h *Handler) PropertyMatches(c *gin.Context) {
	category, err := models.ParseCategory(c.Query("category"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid category", err.Error())
		return
	}
	priority, err := models.ParsePriority(c.DefaultQuery("priority", string(models.PriorityMedium)))
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid priority", err.Error())
		return
	}

	scores, err := h.Matcher.FindBestProviders(c.Request.Context(), c.Param("id"), category, priority)
	if err != nil {
		h.writeMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"property_id": c.Param("id"), "matches": scores})
}

// @Summary Auto-assign the best provider
// @Tags matching
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} map[string]any
// @Router /api/issues/{id}/auto-assign [post]
func (h *Handler) IssueAutoAssign(c *gin.Context) {
	providerID, err := h.Matcher.AutoAssignProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrIssueNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		if errors.Is(err, errs.ErrPropertyNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Property not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Auto-assignment failed", err.Error())
		return
	}

	// A nil provider id is a valid outcome, not an error: either no provider
	// covers the category or the best score is below the threshold. The issue
	// stays open for manual assignment.
	if providerID == nil {
		c.JSON(http.StatusOK, gin.H{"provider_id": nil, "assigned": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider_id": *providerID, "assigned": true})
}

func (h *Handler) IssueRespond(c *gin.Context) {
	if err := h.Matcher.RecordResponse(c.Request.Context(), c.Param("id")); err != nil {
		h.writeSLAError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) IssueResolve(c *gin.Context) {
	if err := h.Store.UpdateIssueStatus(c.Request.Context(), c.Param("id"), models.StatusCompleted); err != nil {
		if errors.Is(err, errs.ErrIssueNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to resolve issue", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) IssueSLA(c *gin.Context) {
	sla, err := h.Store.GetSLATracking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeSLAError(c, err)
		return
	}
	c.JSON(http.StatusOK, sla)
}

// @Summary Evaluate SLA deadlines for one issue
// @Tags sla
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} map[string]any
// @Router /api/issues/{id}/escalate [post]
func (h *Handler) IssueEscalate(c *gin.Context) {
	if err := h.Matcher.HandleEscalation(c.Request.Context(), c.Param("id")); err != nil {
		h.writeSLAError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Run escalation sweep
// @Tags sla
// @Produce json
// @Success 200 {object} matching.SweepSummary
// @Router /api/escalations/run [post]
func (h *Handler) EscalationsRun(c *gin.Context) {
	summary, err := h.Matcher.RunEscalationSweep(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Escalation sweep failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) writeMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrPropertyNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Property not found", nil)
	case errors.Is(err, errs.ErrInvalidCategory), errors.Is(err, errs.ErrInvalidPriority):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	default:
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Matching failed", err.Error())
	}
}

func (h *Handler) writeSLAError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrIssueNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
	case errors.Is(err, errs.ErrSLANotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue has no SLA tracking", nil)
	default:
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "SLA operation failed", err.Error())
	}
}
