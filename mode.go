package errsite

import (
	"encoding"
	"fmt"

	"go.uber.org/atomic"
)

// Mode controls whether wrapping an error captures the call stack.
type Mode int32

const (
	// NoCapture never captures the call stack.
	// Only the site of the wrap is recorded.
	//
	// This is the default.
	NoCapture Mode = iota

	// Capture captures the call stack if the ERRSITE_BACKTRACE
	// environment variable is set to a value other than "0".
	// Frames are symbolized on first use.
	Capture

	// ForceCapture always captures the call stack.
	ForceCapture
)

var (
	_ encoding.TextMarshaler   = NoCapture
	_ encoding.TextUnmarshaler = (*Mode)(nil)
	_ fmt.Stringer             = NoCapture
)

// captureMode selects the default Mode at build time:
//
//	go build -ldflags "-X braces.dev/errsite.captureMode=force-capture"
//
// Unrecognized values fall back to NoCapture.
var captureMode string

var _mode = atomic.NewInt32(int32(buildMode()))

func buildMode() Mode {
	var m Mode
	if err := m.UnmarshalText([]byte(captureMode)); err != nil {
		return NoCapture
	}
	return m
}

// CaptureMode reports the current capture mode.
func CaptureMode() Mode {
	return Mode(_mode.Load())
}

// SetCaptureMode changes the capture mode for errors wrapped from now on.
// It returns a function that restores the previous mode.
//
// Capturing walks and later symbolizes the stack on every wrap;
// avoid it on latency-sensitive paths.
func SetCaptureMode(m Mode) (restore func()) {
	prev := Mode(_mode.Swap(int32(m)))
	return func() {
		_mode.Store(int32(prev))
	}
}

func (m Mode) String() string {
	v, err := m.MarshalText()
	if err != nil {
		return fmt.Sprintf("mode(%d)", int32(m))
	}
	return string(v)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case NoCapture:
		return []byte("no-capture"), nil
	case Capture:
		return []byte("capture"), nil
	case ForceCapture:
		return []byte("force-capture"), nil
	default:
		return nil, fmt.Errorf("cannot marshal invalid Mode(%d)", int32(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
// The empty string is accepted as NoCapture.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "no-capture":
		*m = NoCapture
	case "capture":
		*m = Capture
	case "force-capture":
		*m = ForceCapture
	default:
		return fmt.Errorf("unknown capture mode %q", b)
	}
	return nil
}
