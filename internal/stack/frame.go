// Package stack parses and normalizes the textual backtrace
// rendered by the capture facility into structured frames.
//
// The text has the form:
//
//	Backtrace [{ fn: "main.main", file: "/src/app/main.go", line: 12 }, ...]
//
// Frames are listed innermost first.
package stack

import "fmt"

// Frame is a single frame of a captured call stack.
type Frame struct {
	// Func is the fully qualified function name.
	Func string

	// File is the source file of the function, if known.
	File string

	// Line is the line number inside File, or 0 if unknown.
	Line int
}

// String formats the frame the way it appears in verbose error output:
//
//	at pkg.Func (file.go:12)
//
// or just "at pkg.Func" if the file is unknown.
func (f Frame) String() string {
	if f.File == "" {
		return "at " + f.Func
	}
	return fmt.Sprintf("at %s (%s:%d)", f.Func, f.File, f.Line)
}
