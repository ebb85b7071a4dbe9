package stack

import "strings"

// _internalPrefixes are function name prefixes of frames
// that belong to the capture machinery rather than to the program:
// the runtime's stack walker and errsite's own wrapping functions.
var _internalPrefixes = []string{
	"runtime.Callers",
	"braces.dev/errsite.",
	"braces.dev/errsite/internal/backtrace.",
}

// _sourceRoots are directory names that conventionally sit
// directly below a project's root directory.
// Paths are shortened to start at the project directory.
var _sourceRoots = []string{
	"/src/",
	"/cmd/",
	"/internal/",
	"/pkg/",
	"/examples/",
	"/testdata/",
	"/tests/",
	"/benches/",
}

// Normalize removes the leading frames that belong to the capture machinery
// and shortens file paths to start at the project directory.
//
// frames is modified in place and the result shares its storage.
// Normalize is idempotent.
func Normalize(frames []Frame) []Frame {
	frames = dropInternal(frames)
	for i := range frames {
		frames[i].File = ShortenPath(frames[i].File)
	}
	return frames
}

func dropInternal(frames []Frame) []Frame {
	for len(frames) > 0 && isInternal(frames[0].Func) {
		frames = frames[1:]
	}
	return frames
}

func isInternal(fn string) bool {
	for _, prefix := range _internalPrefixes {
		if strings.HasPrefix(fn, prefix) {
			return true
		}
	}
	return false
}

// ShortenPath trims path so that it starts at the directory
// that contains the right-most conventional source root.
// Backslashes are converted to forward slashes first.
//
//	/home/user/work/app/internal/db/conn.go -> app/internal/db/conn.go
//	/usr/local/go/src/runtime/proc.go       -> go/src/runtime/proc.go
//
// Paths without a source root are returned unchanged.
func ShortenPath(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")

	var cut int
	for _, root := range _sourceRoots {
		idx := strings.LastIndex(path, root)
		if idx < 0 {
			continue
		}

		// Start right after the separator preceding the root,
		// or at the beginning if there's no such separator.
		start := strings.LastIndexByte(path[:idx], '/') + 1
		if start > cut {
			cut = start
		}
	}
	return path[cut:]
}
