// Package errsite records where an error crossed an abstraction boundary.
//
// A low-level failure is often converted into a domain error,
// which is in turn converted into an application error.
// [Located] wraps the error at each such conversion,
// recording the site of the conversion and, optionally, the call stack.
//
//	type LoadError struct {
//		Open *errsite.Located[*fs.PathError]
//	}
//
//	func LoadErrorFromPathError(err *fs.PathError) *LoadError {
//		return &LoadError{Open: errsite.WrapCaller(errsite.GetCaller(), err)}
//	}
//
// The errsite command generates such fields and conversion functions
// from annotated error definitions.
//
// # Output
//
// The error message of a wrapper is the message of the wrapped error
// followed by one "; Caused by <type> (<site>)" segment per boundary:
//
//	open config.yaml: file does not exist; Caused by *fs.PathError (app/internal/config/load.go:42)
//
// The verbose form, printed with "%+v", adds the site of every boundary,
// and the call stack of every boundary if it was captured (see [Mode]).
//
// # Unwrapping
//
// A wrapper is not a link in the error chain of its own:
// its Unwrap method returns the cause of the wrapped error,
// and errors.Is and errors.As match the wrapped error through it.
package errsite

import (
	"errors"
	"reflect"
	"slices"
	"strings"
)

// _causedBy separates the original message from the boundary segments.
const _causedBy = "; Caused by "

// Located is an error annotated with the site where it was wrapped.
//
// A Located is immutable and safe for concurrent use
// if the wrapped error is.
type Located[E error] struct {
	inner E
	site  Site
	stack *capturedStack // nil if not captured
}

// located is implemented by all Located instantiations.
type located interface {
	error

	Site() Site
	innerError() error
}

var _ located = (*Located[error])(nil)

// Wrap wraps err, recording the site of the call to Wrap.
// The call stack is captured as well if the capture mode asks for it.
//
// If err is a nil interface value, Wrap returns nil.
//
//go:noinline
func Wrap[E error](err E) *Located[E] {
	if isNil(err) {
		return nil
	}
	return newLocated(callerSite(1), err)
}

// WrapCaller wraps err, recording a site captured earlier with [GetCaller].
//
// If err is a nil interface value, WrapCaller returns nil.
func WrapCaller[E error](c Caller, err E) *Located[E] {
	if isNil(err) {
		return nil
	}
	return newLocated(c.site, err)
}

// WrapAt wraps err, recording the given site.
//
// If err is a nil interface value, WrapAt returns nil.
func WrapAt[E error](site Site, err E) *Located[E] {
	if isNil(err) {
		return nil
	}
	return newLocated(site, err)
}

func newLocated[E error](site Site, err E) *Located[E] {
	return &Located[E]{
		inner: err,
		site:  site,
		stack: captureStack(),
	}
}

// isNil reports whether err is a nil interface value.
// Typed nil pointers are valid errors and are wrapped like any other.
func isNil[E error](err E) bool {
	return any(err) == nil
}

// Inner returns the wrapped error.
func (l *Located[E]) Inner() E {
	return l.inner
}

func (l *Located[E]) innerError() error {
	if l == nil {
		return nil
	}
	return l.inner
}

// Site reports where the error was wrapped.
func (l *Located[E]) Site() Site {
	if l == nil {
		return Site{}
	}
	return l.site
}

// Stack returns the call stack captured when the error was wrapped,
// innermost frame first, or nil if the stack wasn't captured.
func (l *Located[E]) Stack() []Frame {
	if l == nil {
		return nil
	}
	return slices.Clone(l.stack.Frames())
}

// Error returns the message of the wrapped error
// with this boundary's segment spliced in front of earlier ones,
// so that the outermost boundary is listed first:
//
//	<message>; Caused by <type> (<site>)[; Caused by ...]
//
// The call stack is never part of the message.
// A nil *Located reports "<nil>".
func (l *Located[E]) Error() string {
	if l == nil {
		return "<nil>"
	}
	msg := l.inner.Error()
	segment := _causedBy + l.typeName() + " (" + l.site.String() + ")"

	if idx := strings.Index(msg, _causedBy); idx >= 0 {
		return msg[:idx] + segment + msg[idx:]
	}
	return msg + segment
}

// Unwrap returns the cause of the wrapped error.
// The wrapper itself is not a link in the chain.
//
// Both Unwrap() error and the Cause() error method
// used by github.com/pkg/errors are supported.
func (l *Located[E]) Unwrap() error {
	if l == nil {
		return nil
	}
	return unwrapOnce(l.inner)
}

// Is reports whether the wrapped error matches target.
func (l *Located[E]) Is(target error) bool {
	if l == nil {
		return false
	}
	return errors.Is(l.inner, target)
}

// As finds the first error in the wrapped error's chain
// that matches target.
func (l *Located[E]) As(target any) bool {
	if l == nil {
		return false
	}
	return errors.As(l.inner, target)
}

// typeName names the wrapped error's type.
// Interface type parameters name the dynamic type instead,
// since "error" says nothing about where the error came from.
func (l *Located[E]) typeName() string {
	t := reflect.TypeOf((*E)(nil)).Elem()
	if t.Kind() == reflect.Interface {
		if dyn := reflect.TypeOf(l.inner); dyn != nil {
			return dyn.String()
		}
	}
	return t.String()
}

// pureDesc is the wrapped error's message without boundary segments.
func (l *Located[E]) pureDesc() string {
	msg := l.inner.Error()
	if idx := strings.Index(msg, _causedBy); idx >= 0 {
		return msg[:idx]
	}
	return msg
}

// Cloner is an error that can produce a deep copy of itself.
type Cloner[E any] interface {
	error

	Clone() E
}

// Clone returns a copy of l holding a deep copy of the wrapped error.
// The site is copied; the captured stack, if any, is shared.
func Clone[E Cloner[E]](l *Located[E]) *Located[E] {
	return &Located[E]{
		inner: l.inner.Clone(),
		site:  l.site,
		stack: l.stack,
	}
}
