package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies where a failure came from and how callers should treat it
type Kind string

const (
	KindConfigurationUnavailable Kind = "configuration_unavailable"
	KindValidation               Kind = "validation"
	KindRange                    Kind = "range"
	KindUpstreamFailure          Kind = "upstream_failure"
	KindNoDataForDate            Kind = "no_data_for_date"
	KindModelRuntimeFailure      Kind = "model_runtime_failure"
	KindInternal                 Kind = "internal"
)

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindRange:
		return http.StatusUnprocessableEntity
	case KindNoDataForDate:
		return http.StatusNotFound
	case KindUpstreamFailure:
		return http.StatusBadGateway
	case KindConfigurationUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NewValidation(message string, err error) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: message,
		Err:     err,
	}
}

func NewRange(message string) *AppError {
	return &AppError{
		Kind:    KindRange,
		Message: message,
	}
}

func NewUpstream(message string, err error) *AppError {
	e := &AppError{
		Kind:    KindUpstreamFailure,
		Message: message,
		Err:     err,
	}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

func NewNoData(date string) *AppError {
	return &AppError{
		Kind:    KindNoDataForDate,
		Message: fmt.Sprintf("no forecast data available for %s", date),
	}
}

func NewModelRuntime(model string, err error) *AppError {
	return &AppError{
		Kind:    KindModelRuntimeFailure,
		Message: fmt.Sprintf("model %s failed during inference", model),
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}

// As is re-exported so callers need not import both errors packages.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
