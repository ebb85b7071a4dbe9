// Package pc provides access to the program counter
// to determine the caller of a function.
package pc

import "runtime"

// _maxInline bounds how many PCs are read to resolve a single logical frame.
// A physical frame can expand into several logical frames when inlined.
const _maxInline = 16

// Caller returns the logical frame skip levels above the caller of Caller.
// Caller(0) identifies the function that called Caller.
//
// Frames are counted after inlining is expanded,
// so an inlined function is attributed the same way
// as one with its own stack frame.
// ok is false if the stack is not that deep.
func Caller(skip int) (frame runtime.Frame, ok bool) {
	var pcs [_maxInline]uintptr
	n := runtime.Callers(2, pcs[:]) // skip runtime.Callers + Caller
	if n == 0 {
		return runtime.Frame{}, false
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if f == (runtime.Frame{}) {
			return runtime.Frame{}, false
		}
		if skip == 0 {
			return f, true
		}
		skip--
		if !more {
			return runtime.Frame{}, false
		}
	}
}
