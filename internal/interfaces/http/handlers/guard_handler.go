// Package handlers contains the gin HTTP handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appservice "github.com/wavecard/guard/internal/application/service"
	apperrors "github.com/wavecard/guard/pkg/errors"
)

// GuardHandler exposes the evaluation endpoints: rate limit checks, security
// reports, notification triggers, and feature flag evaluation.
type GuardHandler struct {
	rateLimits    *appservice.RateLimitAppService
	security      *appservice.SecurityAppService
	notifications *appservice.NotificationAppService
	flags         *appservice.FeatureFlagAppService
}

// NewGuardHandler creates the evaluation handler.
func NewGuardHandler(
	rateLimits *appservice.RateLimitAppService,
	security *appservice.SecurityAppService,
	notifications *appservice.NotificationAppService,
	flags *appservice.FeatureFlagAppService,
) *GuardHandler {
	return &GuardHandler{
		rateLimits:    rateLimits,
		security:      security,
		notifications: notifications,
		flags:         flags,
	}
}

// CheckRateLimit evaluates one request against the configured rules.
// POST /api/v1/limits/check
func (h *GuardHandler) CheckRateLimit(c *gin.Context) {
	var req appservice.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequest(err.Error()))
		return
	}

	decision := h.rateLimits.CheckRateLimit(c.Request.Context(), req)
	c.JSON(http.StatusOK, decision)
}

// ReportSecurity classifies reported pattern flags.
// POST /api/v1/security/report
func (h *GuardHandler) ReportSecurity(c *gin.Context) {
	var report appservice.SecurityReport
	if err := c.ShouldBindJSON(&report); err != nil {
		respondError(c, apperrors.ErrInvalidRequest(err.Error()))
		return
	}

	result := h.security.Classify(c.Request.Context(), report)
	c.JSON(http.StatusOK, result)
}

// TriggerNotification fans a business event into the notification queue.
// POST /api/v1/notifications
func (h *GuardHandler) TriggerNotification(c *gin.Context) {
	var req appservice.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequest(err.Error()))
		return
	}

	if err := h.notifications.SendNotification(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued"})
}

// ProcessQueue drains one batch of due queue entries.
// POST /api/v1/notifications/process
func (h *GuardHandler) ProcessQueue(c *gin.Context) {
	processed, err := h.notifications.ProcessQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": processed})
}

type evaluateFlagRequest struct {
	UserID  string                 `json:"user_id" binding:"required"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EvaluateFlag evaluates a single feature flag.
// POST /api/v1/flags/:key/evaluate
func (h *GuardHandler) EvaluateFlag(c *gin.Context) {
	var req evaluateFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequest(err.Error()))
		return
	}

	key := c.Param("key")
	enabled, err := h.flags.Evaluate(c.Request.Context(), key, req.UserID, req.Context)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "enabled": enabled})
}

type evaluateFlagsRequest struct {
	Keys    []string               `json:"keys" binding:"required"`
	UserID  string                 `json:"user_id" binding:"required"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EvaluateFlags evaluates a batch of feature flags.
// POST /api/v1/flags/evaluate
func (h *GuardHandler) EvaluateFlags(c *gin.Context) {
	var req evaluateFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequest(err.Error()))
		return
	}

	results := h.flags.EvaluateAll(c.Request.Context(), req.Keys, req.UserID, req.Context)
	c.JSON(http.StatusOK, gin.H{"flags": results})
}

// respondError maps an error to its HTTP response.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if appErr, ok := apperrors.AsAppError(err); ok {
		status = appErr.HTTPStatus()
	}
	c.JSON(status, apperrors.ToErrorResponse(err))
}
