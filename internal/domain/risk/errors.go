package risk

import (
	"errors"
	"strings"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrModelUnavailable = errors.New("model unavailable")
)

// InvalidInputError reports missing, non-numeric or out-of-range inputs.
// Missing lists the absent field names in form order.
type InvalidInputError struct {
	Missing []string
	Invalid []string
	Reason  string
}

func (e *InvalidInputError) Error() string {
	var b strings.Builder
	b.WriteString(ErrInvalidInput.Error())
	if len(e.Missing) > 0 {
		b.WriteString(": missing ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		b.WriteString(": invalid ")
		b.WriteString(strings.Join(e.Invalid, ", "))
	}
	if e.Reason != "" {
		b.WriteString(" (")
		b.WriteString(e.Reason)
		b.WriteString(")")
	}
	return b.String()
}

// Is matches ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ModelUnavailableError reports that the classifier artifact could not be
// loaded or invoked.
type ModelUnavailableError struct {
	Source string
	Err    error
}

func (e *ModelUnavailableError) Error() string {
	msg := ErrModelUnavailable.Error()
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrModelUnavailable.
func (e *ModelUnavailableError) Is(target error) bool {
	return target == ErrModelUnavailable
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// Missing builds an InvalidInputError for absent fields.
func Missing(fields ...string) *InvalidInputError {
	return &InvalidInputError{Missing: fields}
}
