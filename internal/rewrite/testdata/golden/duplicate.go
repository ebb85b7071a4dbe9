//go:build ignore

package dup

import "io/fs"

//errsite:error
type CopyError struct {
	Src *fs.PathError `errsite:"from"`
	Dst *fs.PathError `errsite:"from"`
}

func (e *CopyError) Error() string { return "copy failed" }
