// Package p1 converts file system errors into load errors.
package p1

import (
	"errors"
	"io/fs"
	"os"

	_ "braces.dev/errsite" // Opt-in to rewriting with toolexec.
)

//errsite:error
type LoadError struct {
	Open *fs.PathError `errsite:"from"`
}

func (e *LoadError) Error() string {
	return "load: " + e.Open.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Open
}

// Load opens the named file.
func Load(name string) error {
	f, err := os.Open(name)
	if err == nil {
		return f.Close()
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return LoadErrorFromPathError(pathErr) // @site
	}
	return err
}
