// Package diff provides utilities for comparing strings and slices
// to produce a readable diff output for tests.
package diff

import (
	"fmt"
	"strconv"
	"strings"
)

// Lines returns a diff of two strings, line-by-line,
// or an empty string if they are equal.
func Lines(want, got string) string {
	return Diff(strings.Split(want, "\n"), strings.Split(got, "\n"))
}

// Diff compares the provided slices element by element
// and returns a diff of them, or an empty string if they are equal.
func Diff[T comparable](want, got []T) string {
	// We want to pad diff output with line number in the format:
	//
	//   - 1 | line 1
	//   + 2 | line 2
	//
	// To do that, we need to know the longest line number.
	longest := max(len(want), len(got))
	lineFormat := fmt.Sprintf("%%s %%-%dd | %%v\n", len(strconv.Itoa(longest))) // e.g. "%-2d | %s%v\n"
	const (
		minus = "-"
		plus  = "+"
		equal = " "
	)

	var buf strings.Builder
	writeLine := func(idx int, kind string, v T) {
		fmt.Fprintf(&buf, lineFormat, kind, idx+1, v)
	}

	var lastEqs []T
	for i := 0; i < len(want) || i < len(got); i++ {
		if i < len(want) && i < len(got) && want[i] == got[i] {
			lastEqs = append(lastEqs, want[i])
			continue
		}

		// Show up to 3 equal lines before this for context.
		context := lastEqs[max(len(lastEqs)-3, 0):]
		for j, eq := range context {
			writeLine(i-len(context)+j, equal, eq)
		}

		if i < len(want) {
			writeLine(i, minus, want[i])
		}
		if i < len(got) {
			writeLine(i, plus, got[i])
		}

		lastEqs = nil
	}

	return buf.String()
}
