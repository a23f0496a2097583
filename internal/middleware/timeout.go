package middleware

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/riskcast-api/pkg/errors"
)

// TimeoutConfig represents timeout middleware configuration
type TimeoutConfig struct {
	Duration time.Duration
}

// DefaultTimeoutConfig returns default timeout configuration
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Duration: 10 * time.Second,
	}
}

// Timeout bounds the request context. Handlers stay on the request goroutine;
// blocking calls observe the deadline through the context.
func Timeout(config TimeoutConfig) gin.HandlerFunc {
	if config.Duration <= 0 {
		config = DefaultTimeoutConfig()
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), config.Duration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !c.Writer.Written() && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			_ = c.Error(errors.NewUpstream("request timed out", ctx.Err()))
		}
	}
}
