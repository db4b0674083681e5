package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStructural matches every structural compile error via errors.Is.
// Structural errors abort the whole run; no output is produced.
var ErrStructural = errors.New("structural configuration error")

// Error is implemented by all compile errors.
type Error interface {
	error
	// Path is the dotted location of the offending node ("conditional.touch.state").
	Path() string
}

// baseError provides common error functionality.
type baseError struct {
	path string
	msg  string
}

func (e *baseError) Path() string { return e.path }

func (e *baseError) Error() string {
	if e.path != "" {
		return fmt.Sprintf("%s: %s", e.path, e.msg)
	}
	return e.msg
}

// Is makes errors.Is(err, ErrStructural) true for every compile error.
func (e *baseError) Is(target error) bool { return target == ErrStructural }

// UnknownKeyError reports a key outside a closed vocabulary: an exception
// statement kind, a statement argument, or a comparison operator.
type UnknownKeyError struct {
	baseError
	Key        string
	Vocabulary []string
}

// NewUnknownKeyError creates an unrecognized block argument error.
func NewUnknownKeyError(path, key string, vocabulary []string) *UnknownKeyError {
	return &UnknownKeyError{
		baseError: baseError{
			path: path,
			msg:  fmt.Sprintf("unrecognized block argument %q (expected one of: %s)", key, strings.Join(vocabulary, ", ")),
		},
		Key:        key,
		Vocabulary: vocabulary,
	}
}

// MissingComparisonError reports a conditional block where no child
// resolves to a comparison.
type MissingComparisonError struct {
	baseError
}

// NewMissingComparisonError creates a missing comparison error.
func NewMissingComparisonError(path string) *MissingComparisonError {
	return &MissingComparisonError{baseError: baseError{
		path: path,
		msg:  fmt.Sprintf("conditional block has no comparison (expected one of: %s)", strings.Join(comparisonKeys(), ", ")),
	}}
}

// MissingArgumentError reports an exception statement without a required argument.
type MissingArgumentError struct {
	baseError
	Statement StmtKind
	Arg       string
}

// NewMissingArgumentError creates a missing argument error.
func NewMissingArgumentError(path string, stmt StmtKind, arg string) *MissingArgumentError {
	return &MissingArgumentError{
		baseError: baseError{path: path, msg: fmt.Sprintf("%s statement requires %q", stmt, arg)},
		Statement: stmt,
		Arg:       arg,
	}
}

// MalformedCallError reports an object with nothing to render:
// no attributes, no children.
type MalformedCallError struct {
	baseError
}

// NewMalformedCallError creates a malformed call error.
func NewMalformedCallError(path string) *MalformedCallError {
	return &MalformedCallError{baseError: baseError{
		path: path,
		msg:  "malformed call: no renderable parameters",
	}}
}

// DuplicateDeviceError reports more than one device descriptor under MCU.
type DuplicateDeviceError struct {
	baseError
	First  string
	Second string
}

// NewDuplicateDeviceError creates a duplicate device error.
func NewDuplicateDeviceError(path, first, second string) *DuplicateDeviceError {
	return &DuplicateDeviceError{
		baseError: baseError{path: path, msg: fmt.Sprintf("more than one device declared (%s, %s)", first, second)},
		First:     first,
		Second:    second,
	}
}

// ConstantConflictError reports a hoisted constant name bound to two
// different values.
type ConstantConflictError struct {
	baseError
	Name   string
	First  int64
	Second int64
}

// NewConstantConflictError creates a constant conflict error.
func NewConstantConflictError(path, name string, first, second int64) *ConstantConflictError {
	return &ConstantConflictError{
		baseError: baseError{path: path, msg: fmt.Sprintf("constant %s declared as both %d and %d", name, first, second)},
		Name:      name,
		First:     first,
		Second:    second,
	}
}
