package grading

import (
	"errors"
	"fmt"
)

// ErrMalformedGrades marks a persisted grades document whose shape could not be
// decoded. It is recoverable: decoding still returns the empty structure.
var ErrMalformedGrades = errors.New("malformed grades document")

// ValidationErrorKind classifies a rejected score.
type ValidationErrorKind string

const (
	// NotANumber means the input could not be parsed as a finite decimal.
	NotANumber ValidationErrorKind = "not_a_number"
	// OutOfRange means the parsed value falls outside [MinScore, MaxScore].
	OutOfRange ValidationErrorKind = "out_of_range"
)

// ValidationError is returned for score input the form layer must reject.
type ValidationError struct {
	Kind  ValidationErrorKind
	Input string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case OutOfRange:
		return fmt.Sprintf("score %q must be between %.1f and %.1f", e.Input, MinScore, MaxScore)
	default:
		return fmt.Sprintf("score %q is not a number", e.Input)
	}
}

// IsValidationError reports whether err carries a *ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var target *ValidationError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
