// Package validation checks request payloads before they reach the store.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"scheduling-service/internal/apperr"
	"scheduling-service/internal/scheduling"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	slugRegex  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Validator struct {
	validate *validator.Validate
}

func New() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, fn := range map[string]validator.Func{
		"hhmm":          validateClock,
		"allowed_tz":    validateTimezone,
		"weekdays":      validateWeekdays,
		"invitee_email": validateEmail,
		"slug":          validateSlug,
		"instant":       validateInstant,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %q validator: %w", tag, err)
		}
	}
	v.RegisterStructValidation(validateWindow, scheduling.TimeWindow{})

	return &Validator{validate: v}, nil
}

// Validate checks s and returns an *apperr.Error of kind validation on failure.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("validation failed", err)
	}
	fields := translate(verrs)
	return apperr.Validation(fields[0].Message).WithDetails(map[string]any{"fields": fields})
}

func translate(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		out = append(out, FieldError{Field: field, Message: message(field, fe)})
	}
	return out
}

// fieldPath drops the root struct name from a namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "invitee_email":
		return "Invalid email format"
	case "hhmm":
		return field + " must be a time in HH:MM format"
	case "window_order":
		return field + " must be after start"
	case "allowed_tz":
		return "Invalid timezone"
	case "weekdays":
		return "weeklySchedule must contain all seven days of the week"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "slug":
		return "slug may only contain letters, numbers, hyphens and underscores"
	case "instant":
		return field + " must be an ISO-8601 timestamp"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := scheduling.ParseClock(fl.Field().String())
	return err == nil
}

func validateTimezone(fl validator.FieldLevel) bool {
	tz := fl.Field().String()
	if !IsAllowedTimezone(tz) {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func validateWeekdays(fl validator.FieldLevel) bool {
	ws, ok := fl.Field().Interface().(scheduling.WeeklySchedule)
	if !ok || len(ws) != len(scheduling.Weekdays) {
		return false
	}
	for _, day := range scheduling.Weekdays {
		if _, ok := ws[day]; !ok {
			return false
		}
	}
	return true
}

func validateEmail(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

func validateSlug(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

func validateInstant(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

// validateWindow requires start < end, compared as minutes after midnight
// rather than as text. For zero-padded values the two orders agree; for
// unpadded input such as "9:00"-"17:00" a string comparison would reject a
// valid window. Windows are stored zero-padded after WeeklySchedule.Normalize.
func validateWindow(sl validator.StructLevel) {
	w := sl.Current().Interface().(scheduling.TimeWindow)
	start, err := scheduling.ParseClock(w.Start)
	if err != nil {
		return
	}
	end, err := scheduling.ParseClock(w.End)
	if err != nil {
		return
	}
	if start >= end {
		sl.ReportError(w.End, "end", "End", "window_order", "")
	}
}
