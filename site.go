package errsite

import (
	"strconv"

	"braces.dev/errsite/internal/pc"
	"braces.dev/errsite/internal/stack"
)

// Site is the source location where an error was wrapped.
type Site struct {
	// File is the source file.
	// Paths are shortened to start at the project directory
	// when they contain a conventional source root such as cmd/ or internal/.
	File string

	// Line is the line number inside File.
	Line int

	// Column is the column inside Line, or 0 if unknown.
	// The Go runtime does not report columns,
	// so only sites built with [At] carry one.
	Column int
}

// _unknownSite is used when the runtime cannot identify the caller.
var _unknownSite = Site{File: "unknown"}

// At builds a Site from an explicit location.
// Use it with [WrapAt] when the caller is known ahead of time,
// e.g. in code generated for another build system.
func At(file string, line, column int) Site {
	return Site{File: file, Line: line, Column: column}
}

// String formats the site as file:line, or file:line:column
// if the column is known.
func (s Site) String() string {
	str := s.File + ":" + strconv.Itoa(s.Line)
	if s.Column > 0 {
		str += ":" + strconv.Itoa(s.Column)
	}
	return str
}

// callerSite returns the site skip levels above the caller of callerSite.
func callerSite(skip int) Site {
	f, ok := pc.Caller(skip + 1)
	if !ok || f.File == "" {
		return _unknownSite
	}
	return Site{
		File: stack.ShortenPath(f.File),
		Line: f.Line,
	}
}

// Caller is the site of a function call, captured ahead of wrapping.
// It lets error helpers attribute the error to their caller
// instead of to themselves.
type Caller struct {
	site Site
}

// GetCaller captures the site of the call to the function
// that called GetCaller.
//
//	func newQueryError(err error) *QueryError {
//		return &QueryError{Err: errsite.WrapCaller(errsite.GetCaller(), err)}
//	}
//
// Errors built by newQueryError above record where newQueryError was called.
// Conversion functions generated by the errsite command use this.
//
//go:noinline
func GetCaller() Caller {
	return Caller{site: callerSite(2)}
}

// Site reports the captured site.
func (c Caller) Site() Site {
	return c.site
}
