package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation wraps struct tag failures.
	ErrValidation = errors.New("validation failed")

	// ErrBinding wraps body decoding failures.
	ErrBinding = errors.New("binding failed")
)

// Validator returns the shared validator. Field names in errors come from
// json tags and the "snowflake" tag is registered.
var Validator = sync.OnceValue(func() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("snowflake", validateSnowflake)

	return v
})

// Validate checks v's struct tags.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate decodes the JSON body into v and validates it.
func BindAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// ValidationErrors maps each failed field to a readable message. It
// returns nil when err holds no tag failures.
func ValidationErrors(err error) map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = validationMessage(fe)
	}

	return out
}

var validationMessages = map[string]string{
	"required":  "this field is required",
	"snowflake": "must be a numeric ID",
	"url":       "must be a valid URL",
	"gte":       "must be greater than or equal to %s",
	"lte":       "must be less than or equal to %s",
	"oneof":     "must be one of: %s",
}

func validationMessage(fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()

	switch tag {
	case "min", "max":
		bound := "at least"
		if tag == "max" {
			bound = "at most"
		}

		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be %s %s characters", bound, param)
		}

		return fmt.Sprintf("must be %s %s", bound, param)
	}

	msg, ok := validationMessages[tag]
	if !ok {
		return "failed validation: " + tag
	}

	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, param)
	}

	return msg
}

// validateSnowflake accepts chat IDs: ASCII digits only. Empty passes so
// that "required" stays the only presence check.
func validateSnowflake(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), func(r rune) bool {
		return r < '0' || r > '9'
	})
}
