package stack

import (
	"strconv"
	"strings"
)

// Label is the literal that introduces a backtrace dump.
const Label = "Backtrace "

// Parse parses a backtrace dump into frames.
//
// Records without a "fn" key are dropped.
// Missing "file" and "line" keys default to "" and 0.
// ok is false if the dump doesn't have the expected label and brackets,
// or if none of its records could be parsed.
//
// Parse runs in time linear in the size of the input.
func Parse(dump string) (frames []Frame, ok bool) {
	dump = strings.TrimSpace(dump)
	if !strings.HasPrefix(dump, Label) {
		return nil, false
	}

	list := strings.TrimSpace(dump[len(Label):])
	if len(list) < 2 || list[0] != '[' || list[len(list)-1] != ']' {
		return nil, false
	}
	list = list[1 : len(list)-1]

	// Each top-level {...} span is a record.
	// Braces inside quoted strings are not special-cased:
	// function names and paths don't contain them
	// and an unbalanced record just fails to parse.
	var (
		depth int
		start int
	)
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++

		case '}':
			if depth == 0 {
				continue // stray brace
			}
			depth--
			if depth == 0 {
				if f, ok := parseRecord(list[start : i+1]); ok {
					frames = append(frames, f)
				}
			}
		}
	}

	if len(frames) == 0 {
		return nil, false
	}
	return frames, true
}

// parseRecord parses a single "{ fn: ..., file: ..., line: ... }" record.
func parseRecord(rec string) (Frame, bool) {
	rec = strings.TrimSpace(rec)
	if len(rec) < 2 || rec[0] != '{' || rec[len(rec)-1] != '}' {
		return Frame{}, false
	}

	fn, ok := keyValue(rec, "fn:")
	if !ok {
		return Frame{}, false
	}

	f := Frame{Func: fn}
	if file, ok := keyValue(rec, "file:"); ok {
		f.File = file
	}
	if line, ok := keyValue(rec, "line:"); ok {
		if n, err := strconv.Atoi(line); err == nil {
			f.Line = n
		}
	}
	return f, true
}

// keyValue finds the first occurrence of key in rec
// and returns the value that follows it.
//
// Values are either a quoted string, which may contain \" escapes,
// or a bare token terminated by ',', '}', or a space followed by '}'.
// Escape sequences in quoted values are kept as-is.
func keyValue(rec, key string) (string, bool) {
	idx := strings.Index(rec, key)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimLeft(rec[idx+len(key):], " \t\n")

	if strings.HasPrefix(rest, `"`) {
		rest = rest[1:]
		var prev byte
		for i := 0; i < len(rest); i++ {
			c := rest[i]
			if c == '"' && prev != '\\' {
				return rest[:i], true
			}
			prev = c
		}
		return "", false // unterminated
	}

	end := len(rest)
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c == ',' || c == '}' || (c == ' ' && i+1 < len(rest) && rest[i+1] == '}') {
			end = i
			break
		}
	}

	value := strings.TrimSpace(rest[:end])
	if value == "" {
		return "", false
	}
	return value, true
}
