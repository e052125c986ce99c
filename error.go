package faust

import (
	"errors"
	"fmt"
)

var (
	// ErrCompile is returned when the compiler rejects the source.
	ErrCompile = errors.New("compilation failed")
	// ErrInstantiate is returned when the factory cannot create an instance.
	ErrInstantiate = errors.New("instantiation failed")
)

// Session build steps reported in Error.Op.
const (
	OpCompile     = "compile"
	OpInstantiate = "instantiate"
)

// Error is returned when a session cannot be built. The session it comes
// with stays invalid for good, a new session is needed to retry.
type Error struct {
	Op         string
	Name       string
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("%s dsp %q: %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("%s dsp %q: %v: %s", e.Op, e.Name, e.Err, e.Diagnostic)
}

// Unwrap returns the sentinel error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by its non-empty Op and Name fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return (t.Op == "" || t.Op == e.Op) && (t.Name == "" || t.Name == e.Name)
}
