package assert

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Exception is a domain error raised with Throw. A test method that panics
// with an *Exception is reported as failed with the location it was raised at.
type Exception struct {
	Message string
	File    string
	Line    int
}

func (e *Exception) Error() string {
	return e.Message
}

// Location returns "<file>:<line>" using the base name of the file.
func (e *Exception) Location() string {
	return filepath.Base(e.File) + ":" + fmt.Sprint(e.Line)
}

// NewException creates an Exception located at the caller.
func NewException(msg string) *Exception {
	return newException(2, msg)
}

// Throw panics with an Exception located at the caller.
func Throw(msg string) {
	panic(newException(2, msg))
}

// Throwf is Throw with a format string.
func Throwf(format string, args ...any) {
	panic(newException(2, fmt.Sprintf(format, args...)))
}

func newException(skip int, msg string) *Exception {
	e := &Exception{Message: msg}
	if _, file, line, ok := runtime.Caller(skip); ok {
		e.File, e.Line = file, line
	}
	return e
}
