//go:build ignore

package site

import "os"

var errsite = "taken"

//errsite:error
type OpenError struct {
	Err *os.PathError `errsite:"from"`
}

func (e *OpenError) Error() string { return errsite + e.Err.Error() }
