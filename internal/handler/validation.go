package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BindingErrorMessage flattens validation failures from request binding into
// one readable message naming the offending fields. Non-validator errors
// (malformed JSON, wrong types) pass through as-is.
func BindingErrorMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}

	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", e.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
		case "uuid":
			parts = append(parts, fmt.Sprintf("%s must be a valid UUID", e.Field()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must contain at least %s item(s)", e.Field(), e.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s exceeds the maximum length of %s", e.Field(), e.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", e.Field(), e.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
