package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid config")

// validate names fields by their koanf key so messages read like the
// settings an operator writes.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}

		return name
	})

	return v
}()

var tagMessages = map[string]string{
	"required":    "is required",
	"required_if": "is required when %s",
	"min":         "must be at least %s",
	"max":         "must be at most %s",
	"oneof":       "must be one of: %s",
	"url":         "must be a valid URL",
}

// Validate checks struct tags first, then the rules that span fields.
// Every problem is reported, not just the first.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}

		errs := make([]error, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			errs = append(errs, errors.New(describe(fe)))
		}

		return fmt.Errorf("%w:\n%w", ErrInvalid, errors.Join(errs...))
	}

	if err := errors.Join(c.crossFieldErrors()...); err != nil {
		return fmt.Errorf("%w:\n%w", ErrInvalid, err)
	}

	return nil
}

// crossFieldErrors covers relations the tags cannot express.
func (c *Config) crossFieldErrors() []error {
	var errs []error

	if c.Client.Retry.MaxInterval < c.Client.Retry.InitialInterval {
		errs = append(errs, fmt.Errorf("client.retry.max_interval (%s) is below client.retry.initial_interval (%s)",
			c.Client.Retry.MaxInterval, c.Client.Retry.InitialInterval))
	}

	// An expired cache refreshes on the request that noticed it.
	if c.Quotes.FetchTimeout >= c.Server.WriteTimeout {
		errs = append(errs, fmt.Errorf("quotes.fetch_timeout (%s) must be below server.write_timeout (%s)",
			c.Quotes.FetchTimeout, c.Server.WriteTimeout))
	}

	return errs
}

// describe renders "quotes.source_url must be a valid URL".
func describe(fe validator.FieldError) string {
	field := keyPath(fe.Namespace())

	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}

	if strings.Contains(msg, "%s") {
		msg = fmt.Sprintf(msg, fe.Param())
	}

	return field + " " + msg
}

// keyPath drops the root struct name: "Config.quotes.ttl" -> "quotes.ttl".
func keyPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return strings.ToLower(namespace)
	}

	return strings.ToLower(rest)
}
