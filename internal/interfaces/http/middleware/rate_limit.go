package middleware

import (
	"github.com/gin-gonic/gin"

	appservice "github.com/wavecard/guard/internal/application/service"
	"github.com/wavecard/guard/pkg/constants"
	apperrors "github.com/wavecard/guard/pkg/errors"
)

// SelfRateLimit guards the service's own API with the same rule engine it
// exposes. Evaluation fails open inside the service, so this middleware only
// ever rejects on an explicit deny.
func SelfRateLimit(rateLimits *appservice.RateLimitAppService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := c.Request.Context().Value(constants.ContextKeyUserID).(string)

		decision := rateLimits.CheckRateLimit(c.Request.Context(), appservice.CheckRequest{
			Endpoint:  c.FullPath(),
			Method:    c.Request.Method,
			IPAddress: c.ClientIP(),
			UserID:    userID,
			UserAgent: c.Request.UserAgent(),
		})

		if !decision.Allowed {
			status := decision.StatusCode
			if status == 0 {
				status = constants.DefaultRateLimitStatusCode
			}
			c.AbortWithStatusJSON(status, apperrors.ErrorResponse{
				Error:            string(constants.ErrCodeRateLimitExceeded),
				ErrorDescription: decision.Message,
			})
			return
		}

		c.Next()
	}
}
