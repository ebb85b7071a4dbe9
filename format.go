package errsite

import (
	"fmt"
	"io"
	"strings"
)

// _causedByLine separates the verbose form of a cause
// from the verbose form of the error that wraps it.
const _causedByLine = "\nCaused by: "

var _ fmt.Formatter = (*Located[error])(nil)

// Format implements fmt.Formatter.
//
// "%+v" prints the verbose form.
// Without a captured stack, it is the wrapped error's verbose form
// followed by a "\tat (<site>) by <type>" line.
// With a captured stack, " (<site>)" is added to the end of the
// first line of the wrapped error's verbose form, not after all of it,
// so the site stays next to the message it locates.
// A "Caused by: <type>: <message>" line and the stack frames follow,
// leaving out frame lines already present in the wrapped error's text.
//
// All other verbs format the result of Error.
// A nil *Located formats as "<nil>".
func (l *Located[E]) Format(s fmt.State, verb rune) {
	if l == nil {
		io.WriteString(s, "<nil>")
		return
	}
	if verb == 'v' && s.Flag('+') {
		l.writeVerbose(s)
		return
	}
	fmt.Fprintf(s, fmt.FormatString(s, verb), l.Error())
}

func (l *Located[E]) writeVerbose(w io.Writer) {
	inner := fmt.Sprintf("%+v", l.inner)
	frames := l.stack.Frames()
	if len(frames) == 0 {
		fmt.Fprintf(w, "%s\n\tat (%v) by %s", inner, l.site, l.typeName())
		return
	}

	// The site goes at the end of the first line.
	text := inner + " (" + l.site.String() + ")"
	if idx := strings.IndexByte(inner, '\n'); idx >= 0 {
		text = inner[:idx] + " (" + l.site.String() + ")" + inner[idx:]
	}

	lines := make([]string, 0, len(frames)+2)
	rest, hasRest := "", false
	if idx := strings.Index(text, _causedByLine); idx >= 0 {
		lines = append(lines, text[:idx])
		rest, hasRest = text[idx+1:], true
	} else {
		lines = append(lines, text)
	}

	lines = append(lines, "Caused by: "+l.typeName()+": "+l.pureDesc())
	for _, f := range frames {
		line := "\t" + f.String()
		if strings.Contains(text, line) {
			continue
		}
		lines = append(lines, line)
	}
	if hasRest {
		lines = append(lines, rest)
	}

	io.WriteString(w, strings.Join(lines, "\n"))
}

// FormatCause implements fmt.Formatter for an error type
// that holds a wrapped cause, such as a type generated by the errsite command:
//
//	func (e *LoadError) Format(s fmt.State, verb rune) {
//		errsite.FormatCause(s, verb, e, e.Open)
//	}
//
// "%+v" prints the verbose form of cause.
// All other verbs format err.Error().
func FormatCause(s fmt.State, verb rune, err, cause error) {
	if verb == 'v' && s.Flag('+') && cause != nil {
		fmt.Fprintf(s, "%+v", cause)
		return
	}
	fmt.Fprintf(s, fmt.FormatString(s, verb), err.Error())
}
