// Package backtrace captures the call stack of the current goroutine
// and renders it as text:
//
//	Backtrace [{ fn: "main.main", file: "/src/app/main.go", line: 12 }, ...]
//
// Capturing only records program counters.
// Symbolization happens once, the first time the backtrace is rendered.
package backtrace

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Status reports whether a Backtrace holds captured frames.
type Status int

const (
	// Disabled means capturing was not requested or not allowed.
	Disabled Status = iota

	// Captured means the backtrace holds frames.
	Captured

	// Unsupported means the runtime did not return any frames.
	Unsupported
)

func (s Status) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Captured:
		return "captured"
	case Unsupported:
		return "unsupported"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// EnvVar enables [Capture] when set to anything other than "0".
const EnvVar = "ERRSITE_BACKTRACE"

// _maxDepth bounds the number of frames captured.
const _maxDepth = 64

// Backtrace is a captured call stack.
// It is safe for concurrent use.
type Backtrace struct {
	status Status
	pcs    []uintptr

	once sync.Once
	text string
}

var _disabled = &Backtrace{status: Disabled}

var (
	_envOnce    sync.Once
	_envEnabled bool
)

// Enabled reports whether the environment asks for backtraces.
// The environment is consulted only once.
func Enabled() bool {
	_envOnce.Do(func() {
		v, ok := os.LookupEnv(EnvVar)
		_envEnabled = ok && v != "0"
	})
	return _envEnabled
}

// Capture captures a backtrace if [Enabled] reports true.
// Otherwise it returns a disabled backtrace.
//
// The trace starts at runtime.Callers:
// frames of the capture machinery are kept
// and are expected to be dropped by the consumer.
func Capture() *Backtrace {
	if !Enabled() {
		return _disabled
	}
	return capture()
}

// ForceCapture captures a backtrace regardless of the environment.
// See [Capture] for the frames included.
func ForceCapture() *Backtrace {
	return capture()
}

func capture() *Backtrace {
	pcs := make([]uintptr, _maxDepth)
	n := runtime.Callers(0, pcs)
	if n == 0 {
		return &Backtrace{status: Unsupported}
	}
	return &Backtrace{status: Captured, pcs: pcs[:n]}
}

// None returns a disabled backtrace.
func None() *Backtrace {
	return _disabled
}

// Status reports whether b holds frames.
func (b *Backtrace) Status() Status {
	return b.status
}

// String renders the backtrace.
// A backtrace without frames renders as "<disabled>" or "<unsupported>".
func (b *Backtrace) String() string {
	switch b.status {
	case Disabled:
		return "<disabled>"
	case Unsupported:
		return "<unsupported>"
	}

	b.once.Do(func() {
		b.text = render(b.pcs)
	})
	return b.text
}

func render(pcs []uintptr) string {
	var sb strings.Builder
	sb.WriteString("Backtrace [")

	frames := runtime.CallersFrames(pcs)
	for first := true; ; first = false {
		f, more := frames.Next()
		if f == (runtime.Frame{}) {
			break
		}

		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString("{ fn: ")
		sb.WriteString(quote(f.Function))
		if f.File != "" {
			sb.WriteString(", file: ")
			sb.WriteString(quote(f.File))
			sb.WriteString(", line: ")
			sb.WriteString(strconv.Itoa(f.Line))
		}
		sb.WriteString(" }")

		if !more {
			break
		}
	}

	sb.WriteString("]")
	return sb.String()
}

// quote wraps s in double quotes, escaping embedded double quotes.
// Unlike strconv.Quote, other characters are kept verbatim
// so that Windows paths read naturally.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
