package common

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// FieldError represents a single field validation failure
type FieldError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *FieldError

// Validator collects field errors across a request
type Validator struct {
	errors []FieldError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{errors: make([]FieldError, 0)}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

func asString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", true
		}
		return *v, true
	}
	return "", false
}

// Required - Common validation rules
func Required(fieldName string, value interface{}) *FieldError {
	str, ok := asString(value)
	if value == nil || (ok && strings.TrimSpace(str) == "") {
		return &FieldError{Field: fieldName, Value: value, Message: "is required"}
	}
	return nil
}

// MaxLen bounds a string field by rune count.
func MaxLen(max int) ValidationRule {
	return func(fieldName string, value interface{}) *FieldError {
		str, ok := asString(value)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &FieldError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// OptionalEmail accepts a blank value; anything else must parse as an
// e-mail address.
func OptionalEmail(fieldName string, value interface{}) *FieldError {
	str, ok := asString(value)
	if !ok || strings.TrimSpace(str) == "" {
		return nil
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(str)); err != nil {
		return &FieldError{Field: fieldName, Value: value, Message: "must be a valid e-mail address"}
	}
	return nil
}

// ValidateAndReturnError validates and returns a validation error if any rule failed
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return ValidationError(validator.ErrorMessage())
	}
	return nil
}
