package dice

import (
	"errors"
	"fmt"
)

// Kind classifies an evaluation failure. The four kinds are exhaustive:
// every failure maps to exactly one of them.
type Kind string

const (
	// KindParse is malformed syntax, detected by the lexer or parser.
	KindParse Kind = "ParseError"
	// KindSemantic is a well-formed but logically invalid construction.
	KindSemantic Kind = "SemanticError"
	// KindLimit is a configured safety bound being reached.
	KindLimit Kind = "LimitError"
	// KindRuntime is a failure only detectable while evaluating.
	KindRuntime Kind = "RuntimeError"
)

// Error is a terminal evaluation failure located in the input.
type Error struct {
	Kind     Kind
	Message  string
	Position int
	Input    string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d: %s", e.Kind, e.Position, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinel values for errors.Is checks against a kind.
var (
	ErrParse    = &Error{Kind: KindParse}
	ErrSemantic = &Error{Kind: KindSemantic}
	ErrLimit    = &Error{Kind: KindLimit}
	ErrRuntime  = &Error{Kind: KindRuntime}
)

func newError(kind Kind, input string, position int, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: position,
		Input:    input,
	}
}

func parseErrorf(input string, position int, format string, args ...any) *Error {
	return newError(KindParse, input, position, format, args...)
}

func semanticErrorf(input string, position int, format string, args ...any) *Error {
	return newError(KindSemantic, input, position, format, args...)
}

func limitErrorf(input string, position int, format string, args ...any) *Error {
	return newError(KindLimit, input, position, format, args...)
}

func runtimeErrorf(input string, position int, format string, args ...any) *Error {
	return newError(KindRuntime, input, position, format, args...)
}

// AsError converts any error into an *Error. Errors that are not already
// dice errors become RuntimeErrors at position 0.
func AsError(err error, input string) *Error {
	if err == nil {
		return nil
	}
	var diceErr *Error
	if errors.As(err, &diceErr) {
		if diceErr.Input == "" {
			copied := *diceErr
			copied.Input = input
			return &copied
		}
		return diceErr
	}
	return &Error{
		Kind:    KindRuntime,
		Message: err.Error(),
		Input:   input,
		Cause:   err,
	}
}
