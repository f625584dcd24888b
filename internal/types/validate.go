package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldError describes one failing field of a candidate record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a candidate record fails structural
// validation. It carries one entry per failing field so that callers
// (the JSON API and the HTML form) can report errors next to the input
// that caused them.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, ", ")
}

// Add records a failure for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// FieldMessage returns the first message recorded for field, or "".
func (e *ValidationError) FieldMessage(field string) string {
	if e == nil {
		return ""
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Accepted range for Student.EnrollmentYear. Every backend stores the year
// in a 32-bit column, so the bound is checked before a record is saved.
const (
	MinEnrollmentYear = 1800
	MaxEnrollmentYear = 2200
)

// Validator performs structural (shape-level) checks on Student values.
// It never looks at stored records: uniqueness is the service's job.
//
// A *Validator is safe for concurrent use; build one at startup and share
// it between handlers (go-playground/validator caches struct metadata).
type Validator struct {
	validate *validator.Validate
	minGPA   float64
	maxGPA   float64
}

// NewValidator builds a Validator whose "gpa" rule accepts values in the
// closed range [minGPA, maxGPA].
func NewValidator(minGPA, maxGPA float64) *Validator {
	v := &Validator{
		validate: validator.New(),
		minGPA:   minGPA,
		maxGPA:   maxGPA,
	}

	// Report JSON names (firstName) instead of Go names (FirstName).
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registrations only fail on an empty tag or a nil func.
	_ = v.validate.RegisterValidation("notblank", validators.NotBlank)
	_ = v.validate.RegisterValidation("gpa", func(fl validator.FieldLevel) bool {
		gpa := fl.Field().Float()
		return gpa >= v.minGPA && gpa <= v.maxGPA
	})
	_ = v.validate.RegisterValidation("enrollmentyear", func(fl validator.FieldLevel) bool {
		year := fl.Field().Int()
		return year >= MinEnrollmentYear && year <= MaxEnrollmentYear
	})

	return v
}

// Validate returns nil when candidate is structurally valid and a
// *ValidationError otherwise.
func (v *Validator) Validate(candidate Student) error {
	err := v.validate.Struct(candidate)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate student: %w", err)
	}

	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), v.message(fe))
	}
	return out
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "gpa":
		return fmt.Sprintf("%s must be between %.1f and %.1f", fe.Field(), v.minGPA, v.maxGPA)
	case "enrollmentyear":
		return fmt.Sprintf("%s must be between %d and %d", fe.Field(), MinEnrollmentYear, MaxEnrollmentYear)
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
