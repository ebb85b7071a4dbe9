package errsite

import (
	"sync"

	"braces.dev/errsite/internal/backtrace"
	"braces.dev/errsite/internal/stack"
)

// Frame is a single frame of a captured call stack.
type Frame = stack.Frame

// capturedStack is the call stack recorded when an error was wrapped.
// It is shared, never copied, between clones of a wrapper.
//
// The backtrace is parsed and normalized once, on first use.
// A backtrace that can't be parsed yields no frames.
type capturedStack struct {
	bt *backtrace.Backtrace

	once   sync.Once
	frames []Frame
}

// captureStack records the current call stack according to the capture mode.
// It returns nil if no stack should be recorded.
func captureStack() *capturedStack {
	var bt *backtrace.Backtrace
	switch CaptureMode() {
	case Capture:
		bt = backtrace.Capture()
	case ForceCapture:
		bt = backtrace.ForceCapture()
	default:
		return nil
	}

	if bt.Status() != backtrace.Captured {
		return nil
	}

	s := _stacks.Take()
	s.bt = bt
	return s
}

// Frames returns the normalized frames, innermost first.
// The result must not be modified.
func (s *capturedStack) Frames() []Frame {
	if s == nil {
		return nil
	}

	s.once.Do(func() {
		if frames, ok := stack.Parse(s.bt.String()); ok {
			s.frames = stack.Normalize(frames)
		}
	})
	return s.frames
}

// _stacks hands out capturedStack objects in batches.
// A slab stays alive until all of its stacks are unreachable.
var _stacks = stackArena{slabSize: 256}

// stackArena is a lock-free allocator for capturedStack objects.
type stackArena struct {
	slabSize int
	pool     sync.Pool
}

// Take returns a pointer to a zero capturedStack.
func (a *stackArena) Take() *capturedStack {
	for {
		slab, ok := a.pool.Get().(*stackSlab)
		if !ok {
			slab = &stackSlab{buf: make([]capturedStack, a.slabSize)}
		}

		if s, ok := slab.take(); ok {
			a.pool.Put(slab)
			return s
		}
	}
}

// stackSlab is a fixed-size batch of capturedStack objects
// handed out in order.
type stackSlab struct {
	buf []capturedStack
	idx int // next object to hand out
}

func (s *stackSlab) take() (*capturedStack, bool) {
	if s.idx >= len(s.buf) {
		return nil, false
	}
	ptr := &s.buf[s.idx]
	s.idx++
	return ptr, true
}
