package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/riskcast-api/pkg/errors"
	"github.com/jwalitptl/riskcast-api/pkg/httputil"
)

// Recovery turns a panic into a 500 envelope so no request ends without a
// JSON body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("error", r).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("client_ip", c.ClientIP()).
					Str("request_id", c.GetString(ContextRequestID)).
					Msg("Request panic recovered")

				httputil.AbortWithError(c, errors.NewInternal(fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
