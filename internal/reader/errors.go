package reader

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks a record that cannot be turned into an emitter.
	ErrMalformed = errors.New("malformed record")
	// ErrEmpty marks an input that produced no emitters at all.
	ErrEmpty = errors.New("no emitters")
)

// ParseError locates a population failure in its input file.
// Line is zero when the failure concerns the whole file.
type ParseError struct {
	File string
	Line int
	Err  error
}

// Error formats the failure as file:line: reason.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func malformed(file string, line int, format string, args ...any) *ParseError {
	return &ParseError{File: file, Line: line, Err: fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)}
}
