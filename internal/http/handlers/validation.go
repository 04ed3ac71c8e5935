package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateRequest runs the struct's validate tags and reports failures by JSON field name.
func validateRequest(req any) []ValidationError {
	errs := []ValidationError{}
	err := getValidator().Struct(req)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return append(errs, ValidationError{Field: "body", Description: err.Error()})
	}
	for _, fe := range verrs {
		errs = append(errs, ValidationError{Field: fieldPath(fe), Description: describe(fe)})
	}
	return errs
}

// fieldPath drops the root struct name from the namespace: ProductRequest.price -> price.
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s cannot be less than %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s characters or items", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
