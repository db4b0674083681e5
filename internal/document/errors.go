package document

import (
	"errors"
	"fmt"
)

// ErrIO matches every IOError via errors.Is. Callers use it to tell a bad
// environment (unreadable input, unwritable output) apart from a bad document.
var ErrIO = errors.New("i/o error")

// IOError reports a failure to read a document or write an artifact.
type IOError struct {
	Op   string // "read", "write", "stat"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIO) true for any IOError.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// ParseError reports a document that is not valid TOML or YAML, or whose
// top level is not a mapping.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse %s (%s): %v", e.Path, e.Format, e.Err)
	}
	return fmt.Sprintf("parse %s document: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
