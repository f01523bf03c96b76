// Package validation wires go-playground/validator with the agency's custom
// tags and turns its errors into field-level messages for API responses.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	apperrors "djagency/pkg/errors"

	"github.com/go-playground/validator/v10"
)

const (
	TagCalendarDate = "calendar_date"
	TagClockTime    = "clock_time"
	TagContactEmail = "contact_email"
	TagSlug         = "slug"

	DateLayout = "2006-01-02"
)

var (
	clockTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	slugRegex      = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details renders the errors for an AppError details map.
func (v ValidationErrors) Details() map[string]any {
	return map[string]any{"errors": []ValidationError(v)}
}

// Field builds a single-field validation failure.
func Field(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}

// New returns a validator that reports JSON field names and knows the custom tags.
func New() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		TagCalendarDate: func(fl validator.FieldLevel) bool { return IsCalendarDate(fl.Field().String()) },
		TagClockTime:    func(fl validator.FieldLevel) bool { return clockTimeRegex.MatchString(fl.Field().String()) },
		TagContactEmail: func(fl validator.FieldLevel) bool { return IsContactEmail(fl.Field().String()) },
		TagSlug:         func(fl validator.FieldLevel) bool { return slugRegex.MatchString(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("failed to register %q validator: %w", tag, err)
		}
	}

	return v, nil
}

// MustNew is New for package-level and constructor use; the custom rules are
// static so registration can only fail on a programming error.
func MustNew() *validator.Validate {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// ToAppError turns a validation failure into a 422 with per-field details.
func ToAppError(message string, err error) *apperrors.AppError {
	var validationErrs ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperrors.Validation(message, validationErrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

// IsCalendarDate reports whether s is a real YYYY-MM-DD date.
func IsCalendarDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsContactEmail accepts a single "@" with a non-empty local part and a domain
// made of at least two non-empty dot-separated labels.
func IsContactEmail(s string) bool {
	if strings.ContainsAny(s, " \t\r\n") || strings.Count(s, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	if local == "" {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" {
			return false
		}
	}
	return true
}

// Struct validates s and translates validator failures into ValidationErrors.
func Struct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Translate(validationErrs)
		}
		return err
	}
	return nil
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
		case "lte":
			message = fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +16502530000)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "nefield":
			message = fmt.Sprintf("%s must differ from %s", err.Field(), err.Param())
		case TagCalendarDate:
			message = fmt.Sprintf("%s has an invalid date format. Use YYYY-MM-DD", err.Field())
		case TagClockTime:
			message = fmt.Sprintf("%s must be in HH:MM format (00:00-23:59)", err.Field())
		case TagContactEmail:
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case TagSlug:
			message = fmt.Sprintf("%s must contain only lowercase letters, digits and single hyphens", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
