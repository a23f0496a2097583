package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/riskcast-api/pkg/errors"
	"github.com/jwalitptl/riskcast-api/pkg/httputil"
)

// ErrorHandler renders the last error attached with c.Error as the JSON
// envelope, unless the handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			level := zerolog.WarnLevel
			if httputil.ErrorStatus(e.Err) >= 500 {
				level = zerolog.ErrorLevel
			}
			log.WithLevel(level).
				Err(e.Err).
				Str("kind", string(errors.KindOf(e.Err))).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, c.Errors.Last().Err)
	}
}
