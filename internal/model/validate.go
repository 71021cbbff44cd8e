package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DescriptionMinLength is the shortest description the forms accept.
const DescriptionMinLength = 6

// Validation codes, used as keys into the message table.
const (
	CodeRequired  = "required"
	CodeMinLength = "minLength"
	CodeInvalid   = "invalid"
)

var validationMessages = map[string]string{
	CodeRequired:  "Field is required",
	CodeMinLength: "Field should be at least {minLength} characters length",
	CodeInvalid:   "Field has an invalid value",
}

// ValidationError reports one form field that failed validation.
type ValidationError struct {
	Field  string
	Code   string
	Params map[string]any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message())
}

// Message renders the user-facing text for the error code.
func (e *ValidationError) Message() string {
	msg, ok := validationMessages[e.Code]
	if !ok {
		return e.Code
	}
	for k, v := range e.Params {
		msg = strings.ReplaceAll(msg, "{"+k+"}", fmt.Sprint(v))
	}
	return msg
}

// ValidateDescription checks a description entered in a form.
func ValidateDescription(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return &ValidationError{Field: "description", Code: CodeRequired}
	}
	// JSON cannot carry invalid UTF-8; it would be rewritten on save.
	if !utf8.ValidString(s) {
		return &ValidationError{Field: "description", Code: CodeInvalid}
	}
	if utf8.RuneCountInString(s) < DescriptionMinLength {
		return &ValidationError{
			Field:  "description",
			Code:   CodeMinLength,
			Params: map[string]any{"minLength": DescriptionMinLength},
		}
	}
	return nil
}

// ValidatePriority checks a priority value entered in a form.
func ValidatePriority(p Priority) error {
	if p == "" {
		return &ValidationError{Field: "priority", Code: CodeRequired}
	}
	if !p.Valid() {
		return &ValidationError{Field: "priority", Code: CodeInvalid}
	}
	return nil
}

// Validate runs the form checks for both fields, description first.
func (t Todo) Validate() error {
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	return ValidatePriority(t.Priority)
}
