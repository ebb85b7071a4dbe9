//go:build ignore

package config

import (
	"io/fs"
	"strconv"
)

// LoadError is returned when the configuration can't be loaded.
//
//errsite:error
type LoadError struct {
	Open  *fs.PathError     `errsite:"from"`
	Parse *strconv.NumError `errsite:"from"`
	Path  string
}

func (e *LoadError) Error() string {
	if e.Open != nil {
		return e.Open.Error()
	}
	return e.Parse.Error()
}
