package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/riskcast-api/pkg/errors"
	"github.com/jwalitptl/riskcast-api/pkg/httputil"
)

// DefaultMaxBodySize bounds request bodies. Admission payloads are well under 1KB.
const DefaultMaxBodySize int64 = 64 << 10

// SizeLimit rejects bodies that declare more than maxBytes and caps the reader
// for those that do not declare a length.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.AbortWithError(c, errors.NewValidation(
				fmt.Sprintf("request body exceeds %d bytes", maxBytes), nil))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
