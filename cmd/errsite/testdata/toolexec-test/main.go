package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"braces.dev/errsite"
	"braces.dev/errsite/cmd/errsite/testdata/toolexec-test/p1"
)

//errsite:error
type StartError struct {
	Load *p1.LoadError `errsite:"from"`
}

func (e *StartError) Error() string {
	return "start: " + e.Load.Error()
}

func (e *StartError) Unwrap() error {
	return e.Load
}

func start() error {
	err := p1.Load("does-not-exist.txt")
	var loadErr *p1.LoadError
	if errors.As(err, &loadErr) {
		return StartErrorFromLoadError(loadErr) // @site
	}
	return err
}

func main() {
	for err := start(); err != nil; err = errors.Unwrap(err) {
		if site, _, ok := errsite.UnwrapSite(err); ok {
			fmt.Printf("%v:%v\n", filepath.Base(site.File), site.Line)
		}
	}
}
