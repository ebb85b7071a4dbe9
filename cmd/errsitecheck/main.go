// errsitecheck reports error definitions
// that have not been rewritten by errsite.
//
// Install it with:
//
//	go install braces.dev/errsite/cmd/errsitecheck@latest
//
// Run it on a set of packages:
//
//	errsitecheck ./...
//
// Use -fix to apply the same edits that 'errsite -w' would make.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"braces.dev/errsite/analysis/errsitecheck"
)

func main() {
	singlechecker.Main(errsitecheck.Analyzer)
}
