//go:build ignore

package config

import "io/fs"

// LoadError has no convert-from fields.
//
//errsite:error
type LoadError struct {
	Open *fs.PathError
	Path string
}

func (e *LoadError) Error() string { return e.Open.Error() }

// NotAnError has a convert-from field but no directive.
type NotAnError struct {
	Open *fs.PathError `errsite:"from"`
}
