package actions

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports invalid item parameters. It is raised before any
// request is sent.
type ValidationError struct {
	Param   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Param == "" {
		return e.Message
	}
	return e.Param + " " + e.Message
}

// IsValidationError checks if an error is a *ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func invalidParam(name, message string) error {
	return &ValidationError{Param: name, Message: message}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("param"); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
}

var validationMessages = map[string]string{
	"required":             "is required",
	"min":                  "must contain at least %s recipient(s)",
	"gte":                  "must be greater than or equal to %s",
	"lte":                  "must be less than or equal to %s",
	"required_without_all": "is required when none of [%s] are present",
}

// validateStruct runs the struct's validate tags and converts the first
// failure into a *ValidationError named after the item parameter.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	first := fieldErrs[0]
	message, ok := validationMessages[first.Tag()]
	if !ok {
		message = "is invalid"
	}
	if strings.Contains(message, "%s") {
		message = strings.Replace(message, "%s", paramList(s, first.Param()), 1)
	}
	return &ValidationError{Param: first.Field(), Message: message}
}

// paramList rewrites a space separated list of struct field names, as used in
// tag parameters, into item parameter names.
func paramList(s any, fields string) string {
	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	names := strings.Fields(fields)
	for i, name := range names {
		if t.Kind() != reflect.Struct {
			break
		}
		if f, ok := t.FieldByName(name); ok {
			if p := f.Tag.Get("param"); p != "" {
				names[i] = p
			}
		}
	}
	return strings.Join(names, ", ")
}
