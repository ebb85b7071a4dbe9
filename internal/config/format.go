package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// Format specifies whether rewritten files are formatted.
type Format int

const (
	// FormatAuto formats the output
	// if it's being written to a file
	// but not if it's being written to stdout.
	//
	// This is the default.
	FormatAuto Format = iota

	// FormatAlways always formats the output.
	FormatAlways

	// FormatNever never formats the output.
	FormatNever
)

// Enabled reports whether output should be formatted,
// given whether it's written back to files.
func (f Format) Enabled(write bool) bool {
	switch f {
	case FormatAlways:
		return true
	case FormatNever:
		return false
	default:
		return write
	}
}

// Set implements flag.Value.
func (f *Format) Set(s string) error {
	switch s {
	case "auto":
		*f = FormatAuto
	case "always", "true": // "true" comes from "-format" without a value
		*f = FormatAlways
	case "never":
		*f = FormatNever
	default:
		return errors.Errorf("invalid format %q is not one of [auto, always, never]", s)
	}
	return nil
}

// IsBoolFlag tells the flag package that plain "-format" is a valid flag.
// When "-format" is used without a value,
// the flag package will call Set("true") on the flag.
func (f *Format) IsBoolFlag() bool {
	return true
}

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatAlways:
		return "always"
	case FormatNever:
		return "never"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	return f.Set(string(b))
}
