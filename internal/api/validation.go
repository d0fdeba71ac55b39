package api

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BindingError converts gin's binding failures into the short field
// messages the app shows verbatim. Anything that is not a validator
// error passes through untouched.
func BindingError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrorResponse{Error: err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}

	return ErrorResponse{Error: strings.Join(msgs, "; ")}
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "lte":
		return field + " must be less than or equal to " + fe.Param()
	default:
		return field + " is invalid"
	}
}
