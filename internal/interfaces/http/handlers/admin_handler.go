package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appservice "github.com/wavecard/guard/internal/application/service"
	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	apperrors "github.com/wavecard/guard/pkg/errors"
)

// AdminHandler exposes the authenticated admin surface: rule management,
// manual unblocking, counter resets, and audit access.
type AdminHandler struct {
	ruleRepo   repository.RateLimitRuleRepository
	rateLimits *appservice.RateLimitAppService
	security   *appservice.SecurityAppService
	flags      *appservice.FeatureFlagAppService
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(
	ruleRepo repository.RateLimitRuleRepository,
	rateLimits *appservice.RateLimitAppService,
	security *appservice.SecurityAppService,
	flags *appservice.FeatureFlagAppService,
) *AdminHandler {
	return &AdminHandler{
		ruleRepo:   ruleRepo,
		rateLimits: rateLimits,
		security:   security,
		flags:      flags,
	}
}

// ListRules returns all enabled rules.
// GET /api/v1/admin/rules
func (h *AdminHandler) ListRules(c *gin.Context) {
	rules, err := h.ruleRepo.ListEnabled(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// CreateRule persists a new rule.
// POST /api/v1/admin/rules
func (h *AdminHandler) CreateRule(c *gin.Context) {
	var rule models.RateLimitRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		respondError(c, apperrors.ErrInvalidRequest(err.Error()))
		return
	}
	if rule.EndpointPattern == "" {
		respondError(c, apperrors.ErrInvalidRequest("endpoint_pattern is required"))
		return
	}

	if err := h.ruleRepo.Save(c.Request.Context(), &rule); err != nil {
		respondError(c, err)
		return
	}
	h.rateLimits.InvalidateRuleCache()
	c.JSON(http.StatusCreated, rule)
}

// UpdateRule updates an existing rule.
// PUT /api/v1/admin/rules/:id
func (h *AdminHandler) UpdateRule(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.ErrInvalidRequest("invalid rule id"))
		return
	}

	rule, err := h.ruleRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var update models.RateLimitRule
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, apperrors.ErrInvalidRequest(err.Error()))
		return
	}
	update.ID = rule.ID
	update.CreatedAt = rule.CreatedAt

	if err := h.ruleRepo.Update(c.Request.Context(), &update); err != nil {
		respondError(c, err)
		return
	}
	h.rateLimits.InvalidateRuleCache()
	c.JSON(http.StatusOK, update)
}

// DeleteRule removes a rule.
// DELETE /api/v1/admin/rules/:id
func (h *AdminHandler) DeleteRule(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.ErrInvalidRequest("invalid rule id"))
		return
	}

	if err := h.ruleRepo.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.rateLimits.InvalidateRuleCache()
	c.Status(http.StatusNoContent)
}

type unblockRequest struct {
	IPAddress string `json:"ip_address" binding:"required"`
}

// UnblockIP removes an IP from the block and suspicious sets.
// POST /api/v1/admin/unblock
func (h *AdminHandler) UnblockIP(c *gin.Context) {
	var req unblockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequest(err.Error()))
		return
	}

	if err := h.security.Unblock(c.Request.Context(), req.IPAddress); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unblocked"})
}

type resetLimitRequest struct {
	EndpointPattern string `json:"endpoint_pattern" binding:"required"`
	Method          string `json:"method" binding:"required"`
	IPAddress       string `json:"ip_address" binding:"required"`
	UserID          string `json:"user_id,omitempty"`
}

// ResetLimit clears the counter for a rule/caller pair.
// POST /api/v1/admin/limits/reset
func (h *AdminHandler) ResetLimit(c *gin.Context) {
	var req resetLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequest(err.Error()))
		return
	}

	if err := h.rateLimits.ResetLimit(c.Request.Context(),
		req.EndpointPattern, req.Method, req.IPAddress, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// RecentEvents returns the newest security events.
// GET /api/v1/admin/events
func (h *AdminHandler) RecentEvents(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	events, err := h.security.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ListFlags returns all feature flag definitions.
// GET /api/v1/admin/flags
func (h *AdminHandler) ListFlags(c *gin.Context) {
	flags, err := h.flags.ListFlags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flags": flags})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
