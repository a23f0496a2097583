package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/riskcast-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response. Errors that are not an
// *errors.AppError are reported as internal without leaking their text.
func RespondWithError(c *gin.Context, err error) {
	c.JSON(ErrorStatus(err), ErrorBody(c, err))
}

// AbortWithError is RespondWithError for middleware that must stop the chain.
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(ErrorStatus(err), ErrorBody(c, err))
}

// ErrorStatus returns the HTTP status for err.
func ErrorStatus(err error) int {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}

// ErrorBody builds the error envelope for err.
func ErrorBody(c *gin.Context, err error) Response {
	body := &Error{
		Code:    http.StatusInternalServerError,
		Kind:    string(errors.KindInternal),
		Message: "Internal server error",
		TraceID: c.GetString("request_id"),
	}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.StatusCode()
		body.Kind = string(appErr.Kind)
		body.Message = appErr.Message
		body.Detail = appErr.Detail
	}

	return Response{
		Success: false,
		Error:   body,
	}
}
