// Package errcode defines the result codes returned by every vessim entry point.
//
// A Code is itself an error, so functions return it unwrapped and callers compare
// with == or errors.Is. OK is never returned as an error; success is a nil error.
package errcode

import (
	"errors"
	"fmt"
)

// Code classifies a failure.
type Code int

const (
	OK Code = iota
	InternalError
	FileError
	SyntaxError
	MemoryError
	BadParameter
	BadState
	InterthreadCall
	InvalidObject
	NotFound
	NotInitialized
	NotImplemented
	InvalidType
)

var names = [...]string{
	OK:              "ok",
	InternalError:   "internal error",
	FileError:       "file error",
	SyntaxError:     "syntax error",
	MemoryError:     "memory error",
	BadParameter:    "bad parameter",
	BadState:        "bad state",
	InterthreadCall: "interthread call",
	InvalidObject:   "invalid object",
	NotFound:        "not found",
	NotInitialized:  "not initialized",
	NotImplemented:  "not implemented",
	InvalidType:     "invalid type",
}

func (c Code) Error() string {
	if c < 0 || int(c) >= len(names) {
		return fmt.Sprintf("vessim: code %d", int(c))
	}
	return "vessim: " + names[c]
}

func (c Code) String() string { return c.Error() }

// Of reports the code carried by err. A nil error is OK and an error that
// carries no code is an InternalError.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return InternalError
}

// IsState reports whether err is a lifecycle or threading violation.
func IsState(err error) bool {
	switch Of(err) {
	case BadState, NotInitialized, InterthreadCall, InvalidObject:
		return true
	}
	return false
}
