package errsite

import "errors"

// Chain returns err followed by each of its causes, outermost first,
// as found by errors.Unwrap.
// Wrappers built by this package are replaced by the errors they wrap,
// so the result holds only the errors that make up the chain.
//
// A nil error has an empty chain.
func Chain(err error) []error {
	var chain []error
	for ; err != nil; err = errors.Unwrap(err) {
		if l, ok := err.(located); ok {
			chain = append(chain, l.innerError())
			continue
		}
		chain = append(chain, err)
	}
	return chain
}

// UnwrapSite unwraps the outermost wrapper from err,
// returning the site it recorded and the error it wraps.
// ok is false if err was not built by this package.
//
// Use it for structured access to provenance information.
func UnwrapSite(err error) (site Site, inner error, ok bool) { //nolint:revive // error is intentionally middle return
	l, ok := err.(located)
	if !ok {
		return Site{}, err, false
	}
	return l.Site(), l.innerError(), true
}

// unwrapOnce returns the direct cause of err, or nil if it has none.
//
// It supports both errors implementing causer (Cause() method, from
// github.com/pkg/errors) and wrapper (Unwrap() method, from the
// standard library).
func unwrapOnce(err error) error {
	switch e := err.(type) {
	case interface{ Cause() error }:
		return e.Cause()
	case interface{ Unwrap() error }:
		return e.Unwrap()
	}
	return nil
}
