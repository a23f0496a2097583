package middleware

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/riskcast-api/pkg/errors"
)

var errorMessages = map[string]string{
	"required": "field is required",
	"isodate":  "must be a date in YYYY-MM-DD form",
}

var registerOnce sync.Once

// RegisterValidators configures gin's validator once per process: field names
// are reported by their JSON key and the "isodate" tag is available. It
// panics if the tag cannot be registered.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Warn().Msg("gin validator engine is not validator/v10, custom tags not registered")
			return
		}
		if err := registerValidators(v); err != nil {
			panic(fmt.Sprintf("registering validators: %v", err))
		}
	})
}

func registerValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
}

// BindingError converts a gin binding failure into a validation AppError
// listing each offending field.
func BindingError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		appErr := errors.NewValidation("malformed request body", err)
		appErr.Detail = err.Error()
		return appErr
	}

	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg := errorMessages[e.Tag()]
		if msg == "" {
			msg = fmt.Sprintf("failed %q validation", e.Tag())
		}
		parts = append(parts, e.Field()+": "+msg)
	}

	appErr := errors.NewValidation("invalid request", err)
	appErr.Detail = strings.Join(parts, "; ")
	return appErr
}
