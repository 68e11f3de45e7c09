package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/fekuna/medequip-catalog-service/internal/apperr"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator, configured to report JSON field names.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v and converts failures into an apperr validation error.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("INVALID_INPUT", err.Error())
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return apperr.Validation("INVALID_INPUT", "request validation failed", fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "max":
		return "Must be at most " + fe.Param()
	case "min":
		return "Must be at least " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "hexcolor":
		return "Must be a hex color like #1A2B3C"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "unique":
		return "Must not contain duplicates"
	default:
		return "Invalid value"
	}
}
