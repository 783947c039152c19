package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

// ValidationError carries every failed field of one payload.
type ValidationError struct {
	Errors []*ErrorResponse
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	first := e.Errors[0]
	return fmt.Sprintf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report json names so errors line up with request payloads.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		switch id := fl.Field().Interface().(type) {
		case uuid.UUID:
			return id != uuid.Nil
		case *uuid.UUID:
			return id != nil && *id != uuid.Nil
		}
		return false
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errs []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []*ErrorResponse{{FailedField: "", Tag: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errs = append(errs, &element)
		}
	}
	return errs
}

// Validate is ValidateStruct returning a *ValidationError, or nil when the payload is valid.
func Validate(data interface{}) error {
	if errs := ValidateStruct(data); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
