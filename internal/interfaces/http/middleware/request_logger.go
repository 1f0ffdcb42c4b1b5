// Package middleware provides gin middleware for the HTTP surface.
package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wavecard/guard/internal/infrastructure/monitoring"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/logger"
)

// RequestLogger assigns a request ID, records metrics, and logs each request.
func RequestLogger(metrics *monitoring.Metrics, log logger.Logger) gin.HandlerFunc {
	accessLog := log.WithComponent("http")

	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, constants.ContextKeyClientIP, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.ObserveRequest(route, c.Request.Method, strconv.Itoa(status), elapsed)

		accessLog.Info(ctx, "Request handled",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", status),
			logger.Duration("elapsed", elapsed),
			logger.String("client_ip", c.ClientIP()),
		)
	}
}
