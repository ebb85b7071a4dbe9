package errsite_test

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"braces.dev/errsite"
)

// ioError is a root failure with no cause.
type ioError struct{ msg string }

func (e *ioError) Error() string { return e.msg }

func (e *ioError) Clone() *ioError { return &ioError{msg: e.msg} }

// dbError and serviceError are written the way the errsite command
// generates conversions for them.
type dbError struct {
	IO *errsite.Located[*ioError]
}

func (e *dbError) Error() string { return e.IO.Error() }

func (e *dbError) Unwrap() error { return e.IO }

func (e *dbError) Format(s fmt.State, verb rune) {
	errsite.FormatCause(s, verb, e, e.IO)
}

//go:noinline
func dbErrorFromIOError(err *ioError) *dbError {
	return &dbError{IO: errsite.WrapCaller(errsite.GetCaller(), err)}
}

type serviceError struct {
	DB *errsite.Located[*dbError]
}

func (e *serviceError) Error() string { return e.DB.Error() }

func (e *serviceError) Unwrap() error { return e.DB }

func (e *serviceError) Format(s fmt.State, verb rune) {
	errsite.FormatCause(s, verb, e, e.DB)
}

//go:noinline
func serviceErrorFromDBError(err *dbError) *serviceError {
	return &serviceError{DB: errsite.WrapCaller(errsite.GetCaller(), err)}
}

func TestError_FileNotFound(t *testing.T) {
	err := errsite.WrapAt(errsite.At("main", 10, 5), &ioError{msg: "file not found"})
	assert.Equal(t, "file not found; Caused by *errsite_test.ioError (main:10:5)", err.Error())
}

func TestError_SpliceBeforeExistingMarker(t *testing.T) {
	inner := errsite.WrapAt(errsite.At("db.go", 3, 0), &ioError{msg: "disk full"})
	mid := errsite.WrapAt(errsite.At("repo.go", 7, 0), &dbError{IO: inner})
	outer := errsite.WrapAt(errsite.At("svc.go", 11, 0), &serviceError{DB: mid})

	assert.Equal(t,
		"disk full"+
			"; Caused by *errsite_test.serviceError (svc.go:11)"+
			"; Caused by *errsite_test.dbError (repo.go:7)"+
			"; Caused by *errsite_test.ioError (db.go:3)",
		outer.Error())
}

func TestError_InterfaceTypeName(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "errors.New",
			err:  errors.New("boom"),
			want: "boom; Caused by *errors.errorString (x.go:1)",
		},
		{
			name: "PathError",
			err:  &fs.PathError{Op: "open", Path: "a.txt", Err: fs.ErrNotExist},
			want: "open a.txt: file does not exist; Caused by *fs.PathError (x.go:1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errsite.WrapAt(errsite.At("x.go", 1, 0), tt.err)
			assert.Equal(t, tt.want, got.Error())
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	var err error
	assert.Nil(t, errsite.Wrap(err))
	assert.Nil(t, errsite.WrapCaller(errsite.GetCaller(), err))
	assert.Nil(t, errsite.WrapAt(errsite.At("a.go", 1, 0), err))
}

// queryError holds an interface-typed cause.
type queryError struct {
	Err *errsite.Located[error]
}

func (e *queryError) Error() string { return "query: " + e.Err.Error() }

func (e *queryError) Unwrap() error { return e.Err }

func (e *queryError) Format(s fmt.State, verb rune) {
	errsite.FormatCause(s, verb, e, e.Err)
}

func TestLocated_NilReceiver(t *testing.T) {
	// A conversion called with a nil error stores a nil wrapper.
	var cause error
	err := &queryError{Err: errsite.WrapCaller(errsite.GetCaller(), cause)}
	require.Nil(t, err.Err)

	assert.Equal(t, "query: <nil>", err.Error())
	assert.Equal(t, "query: <nil>", fmt.Sprintf("%v", err))
	assert.Equal(t, "<nil>", fmt.Sprintf("%+v", err))
	assert.False(t, errors.Is(err, fs.ErrNotExist))

	var ioErr *ioError
	assert.False(t, errors.As(err, &ioErr))
	assert.Nil(t, err.Err.Unwrap())
	assert.Nil(t, err.Err.Stack())
	assert.Equal(t, errsite.Site{}, err.Err.Site())

	site, inner, ok := errsite.UnwrapSite(err.Err)
	assert.True(t, ok)
	assert.Equal(t, errsite.Site{}, site)
	assert.Nil(t, inner)
}

func TestWrap_Accessors(t *testing.T) {
	orig := &ioError{msg: "eof"}
	site := errsite.At("a.go", 1, 2)
	err := errsite.WrapAt(site, orig)

	assert.Same(t, orig, err.Inner())
	assert.Equal(t, site, err.Site())
	assert.Nil(t, err.Stack(), "stack is not captured by default")
}

func TestChain_ThreeLevels(t *testing.T) {
	root := &ioError{msg: "connection reset"}
	b := dbErrorFromIOError(root)
	a := serviceErrorFromDBError(b)

	chain := errsite.Chain(a)
	require.Len(t, chain, 3)
	assert.Same(t, a, chain[0])
	assert.Same(t, b, chain[1])
	assert.Same(t, root, chain[2])

	// errors.Unwrap sees one value per boundary.
	var depth int
	for err := error(a); err != nil; err = errors.Unwrap(err) {
		depth++
	}
	assert.Equal(t, 3, depth)

	next := errors.Unwrap(a)
	var gotB *dbError
	require.True(t, errors.As(next, &gotB))
	assert.Same(t, b, gotB)

	next = errors.Unwrap(next)
	var gotRoot *ioError
	require.True(t, errors.As(next, &gotRoot))
	assert.Same(t, root, gotRoot)

	assert.Nil(t, errors.Unwrap(next))
}

func TestChain_Nil(t *testing.T) {
	assert.Empty(t, errsite.Chain(nil))
}

func TestChain_PlainErrors(t *testing.T) {
	root := errors.New("root")
	wrapped := fmt.Errorf("ctx: %w", root)
	assert.Equal(t, []error{wrapped, root}, errsite.Chain(wrapped))
}

func TestIsAs(t *testing.T) {
	root := &ioError{msg: "timeout"}
	err := serviceErrorFromDBError(dbErrorFromIOError(root))

	assert.ErrorIs(t, err, root)
	assert.NotErrorIs(t, err, &ioError{msg: "timeout"})

	var db *dbError
	require.ErrorAs(t, err, &db)
	assert.Same(t, root, db.IO.Inner())
}

func TestIs_Sentinel(t *testing.T) {
	err := errsite.Wrap(fmt.Errorf("read config: %w", fs.ErrNotExist))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestUnwrap_Causer(t *testing.T) {
	root := errors.New("root")
	err := errsite.Wrap(pkgerrors.WithMessage(root, "context"))
	assert.Same(t, root, errors.Unwrap(err))
}

func TestUnwrapSite(t *testing.T) {
	orig := &ioError{msg: "eof"}
	site := errsite.At("a.go", 4, 0)

	gotSite, inner, ok := errsite.UnwrapSite(errsite.WrapAt(site, orig))
	require.True(t, ok)
	assert.Equal(t, site, gotSite)
	assert.Same(t, orig, inner)

	plain := errors.New("plain")
	gotSite, inner, ok = errsite.UnwrapSite(plain)
	assert.False(t, ok)
	assert.Zero(t, gotSite)
	assert.Same(t, plain, inner)
}

func TestClone(t *testing.T) {
	restore := errsite.SetCaptureMode(errsite.ForceCapture)
	defer restore()

	orig := errsite.Wrap(&ioError{msg: "eof"})
	clone := errsite.Clone(orig)

	assert.NotSame(t, orig.Inner(), clone.Inner())
	assert.Equal(t, orig.Inner(), clone.Inner())
	assert.Equal(t, orig.Site(), clone.Site())
	assert.Equal(t, orig.Error(), clone.Error())

	require.NotEmpty(t, orig.Stack())
	assert.Equal(t, orig.Stack(), clone.Stack())
}

func TestFormat_Verbs(t *testing.T) {
	err := errsite.WrapAt(errsite.At("a.go", 1, 0), &ioError{msg: "eof"})
	msg := "eof; Caused by *errsite_test.ioError (a.go:1)"

	tests := []struct {
		fmt  string
		want string
	}{
		{"%s", msg},
		{"%v", msg},
		{"%q", fmt.Sprintf("%q", msg)},
		{"%50.3s", fmt.Sprintf("%50.3s", msg)},
		{"%+v", "eof\n\tat (a.go:1) by *errsite_test.ioError"},
	}

	for _, tt := range tests {
		t.Run(tt.fmt, func(t *testing.T) {
			assert.Equal(t, tt.want, fmt.Sprintf(tt.fmt, err))
		})
	}
}

func TestFormatCause_Verbs(t *testing.T) {
	err := &dbError{IO: errsite.WrapAt(errsite.At("a.go", 1, 0), &ioError{msg: "eof"})}

	assert.Equal(t, "eof; Caused by *errsite_test.ioError (a.go:1)", fmt.Sprintf("%v", err))
	assert.Equal(t, "eof\n\tat (a.go:1) by *errsite_test.ioError", fmt.Sprintf("%+v", err))
}

func TestFormat_VerboseChain(t *testing.T) {
	inner := errsite.WrapAt(errsite.At("db.go", 3, 0), &ioError{msg: "disk full"})
	outer := errsite.WrapAt(errsite.At("repo.go", 7, 0), &dbError{IO: inner})

	want := strings.Join([]string{
		"disk full",
		"	at (db.go:3) by *errsite_test.ioError",
		"	at (repo.go:7) by *errsite_test.dbError",
	}, "\n")
	assert.Equal(t, want, fmt.Sprintf("%+v", outer))
}

func wrapHere(err error) *errsite.Located[error] {
	return errsite.Wrap(err)
}

func TestFormat_VerboseStack(t *testing.T) {
	restore := errsite.SetCaptureMode(errsite.ForceCapture)
	defer restore()

	err := wrapHere(&ioError{msg: "eof"})
	frames := err.Stack()
	require.NotEmpty(t, frames)
	assert.Equal(t, "braces.dev/errsite_test.wrapHere", frames[0].Func)
	assert.True(t, strings.HasSuffix(frames[0].File, "errsite_test.go"), "file: %v", frames[0].File)

	got := fmt.Sprintf("%+v", err)
	lines := strings.Split(got, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "eof ("+err.Site().String()+")", lines[0])
	assert.Equal(t, "Caused by: *errsite_test.ioError: eof", lines[1])
	assert.Equal(t, "\t"+frames[0].String(), lines[2])
	assert.False(t, strings.HasSuffix(got, "\n"))
}

func TestFormat_VerboseStackOrder(t *testing.T) {
	restore := errsite.SetCaptureMode(errsite.ForceCapture)
	defer restore()

	inner := wrapHere(&ioError{msg: "eof"})
	outer := errsite.Wrap(&dbError{IO: inner})

	got := fmt.Sprintf("%+v", outer)
	outerIdx := strings.Index(got, "Caused by: *errsite_test.dbError: eof")
	innerIdx := strings.Index(got, "Caused by: *errsite_test.ioError: eof")
	require.True(t, outerIdx > 0, "missing outer cause in:\n%s", got)
	require.True(t, innerIdx > outerIdx, "inner cause must follow outer cause in:\n%s", got)

	firstLine, _, _ := strings.Cut(got, "\n")
	assert.Equal(t, "eof ("+inner.Site().String()+") ("+outer.Site().String()+")", firstLine)
}

// verboseError renders extra text with %+v.
type verboseError struct {
	msg     string
	verbose string
}

func (e *verboseError) Error() string { return e.msg }

func (e *verboseError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprint(s, e.verbose)
		return
	}
	fmt.Fprintf(s, fmt.FormatString(s, verb), e.msg)
}

func TestFormat_VerboseStackDedup(t *testing.T) {
	restore := errsite.SetCaptureMode(errsite.ForceCapture)
	defer restore()

	var (
		line  string
		final *errsite.Located[error]
	)
	for i := 0; i < 2; i++ {
		var err error = &ioError{msg: "boom"}
		if line != "" {
			err = &verboseError{msg: "boom", verbose: "boom\n" + line}
		}

		// Both iterations capture the same frames.
		w := wrapHere(err)
		require.NotEmpty(t, w.Stack())
		line = "\t" + w.Stack()[0].String()
		final = w
	}

	got := fmt.Sprintf("%+v", final)
	assert.Equal(t, 1, strings.Count(got, line), "line %q repeated in:\n%s", line, got)
}

func TestStack_NoCapture(t *testing.T) {
	restore := errsite.SetCaptureMode(errsite.NoCapture)
	defer restore()

	err := errsite.Wrap(&ioError{msg: "eof"})
	assert.Nil(t, err.Stack())
	assert.Equal(t,
		"eof\n\tat ("+err.Site().String()+") by *errsite_test.ioError",
		fmt.Sprintf("%+v", err))
}

func TestStack_ReturnsCopy(t *testing.T) {
	restore := errsite.SetCaptureMode(errsite.ForceCapture)
	defer restore()

	err := errsite.Wrap(&ioError{msg: "eof"})
	frames := err.Stack()
	require.NotEmpty(t, frames)
	frames[0].Func = "changed"
	assert.NotEqual(t, "changed", err.Stack()[0].Func)
}
