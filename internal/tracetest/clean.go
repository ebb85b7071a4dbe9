// Package tracetest provides utilities for errsite
// to test verbose error output conveniently.
package tracetest

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"
)

const _fixedDir = "/path/to/errsite"

// _fileLineMatcher matches file:line where file starts with the fixedDir.
// Capture groups:
//
//  1. file path
//  2. line number
var _fileLineMatcher = regexp.MustCompile("(" + regexp.QuoteMeta(_fixedDir) + `[^:]+):(\d+)`)

// MustClean makes verbose error output more deterministic for tests by:
//
//   - replacing the environment-specific path to errsite,
//     full or shortened to start at the errsite directory,
//     with the fixed path /path/to/errsite
//   - replacing line numbers with the lowest values
//     that maintain relative ordering within the file
//
// Note that lines numbers are replaced with increasing values starting at 1,
// with earlier positions in the file getting lower numbers.
// The relative ordering of lines within a file is maintained.
func MustClean(trace string) string {
	// Get deterministic file paths first.
	dir := getErrsiteDir()
	trace = strings.ReplaceAll(trace, dir, _fixedDir)
	shortDir := regexp.MustCompile(`(^|[\s(])` + regexp.QuoteMeta(path.Base(dir)+"/"))
	trace = shortDir.ReplaceAllString(trace, "${1}"+_fixedDir+"/")

	replacer := make(fileLineReplacer)
	for _, m := range _fileLineMatcher.FindAllStringSubmatch(trace, -1) {
		file := m[1]
		lineStr := m[2]
		line, err := strconv.Atoi(lineStr)
		if err != nil {
			panic(fmt.Sprintf("matched bad line number in %q: %v", m[0], err))
		}
		replacer.Add(file, line)
	}

	replacements := replacer.Replacements()
	return _fileLineMatcher.ReplaceAllStringFunc(trace, func(fileLine string) string {
		return replacements[fileLine]
	})
}

func getErrsiteDir() string {
	_, file, _, _ := runtime.Caller(0)
	// Note: Assumes specific location of this file in errsite, strip internal/tracetest/<file>
	dir := filepath.Dir(filepath.Dir(filepath.Dir(file)))
	return filepath.ToSlash(dir)
}

// fileLineReplacer maps each referenced file
// to the line numbers referenced in it.
type fileLineReplacer map[string][]int

// Add adds a file:line pair to the replacer.
func (r fileLineReplacer) Add(file string, line int) {
	r[file] = append(r[file], line)
}

// Replacements maps each referenced file:line
// to its replacement file:line.
func (r fileLineReplacer) Replacements() map[string]string {
	replacements := make(map[string]string)
	for file, fileLines := range r {
		// The index of each unique line + 1 is its new line number.
		slices.Sort(fileLines)
		fileLines = slices.Compact(fileLines)

		for idx, origLine := range fileLines {
			replacements[fmt.Sprintf("%v:%v", file, origLine)] = fmt.Sprintf("%v:%v", file, idx+1)
		}
	}
	return replacements
}
