// Package rewrite turns annotated error definitions into definitions
// that record where each cause was converted.
//
// An error definition is a struct type whose doc comment holds
// the //errsite:error directive.
// Fields tagged `errsite:"from"` are convert-from fields:
//
//	//errsite:error
//	type LoadError struct {
//		Open *fs.PathError `errsite:"from"`
//	}
//
// Each convert-from field of type T becomes *errsite.Located[T],
// and a conversion function from T is appended to the file:
//
//	//errsite:error
//	type LoadError struct {
//		Open *errsite.Located[*fs.PathError] `errsite:"from"`
//	}
//
//	func LoadErrorFromPathError(err *fs.PathError) *LoadError {
//		return &LoadError{Open: errsite.WrapCaller(errsite.GetCaller(), err)}
//	}
//
// Edits are spliced into the original source,
// so positions of existing code do not change.
// Rewriting a file that was already rewritten changes nothing.
package rewrite

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// ImportPath is the import path of the errsite package.
const ImportPath = "braces.dev/errsite"

// Options control the code that is generated.
type Options struct {
	// NoInline marks generated conversion functions //go:noinline.
	NoInline bool
}

// File is a parsed Go source file.
type File struct {
	Fset *token.FileSet
	AST  *ast.File
	Src  []byte
}

// ParseFile parses src as a Go source file, retaining comments.
func ParseFile(fset *token.FileSet, filename string, src []byte) (*File, error) {
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	return &File{Fset: fset, AST: f, Src: src}, nil
}

// Warning reports an error definition that was skipped in whole or in part.
type Warning struct {
	Pos token.Pos
	Msg string
}

// Plan is the set of edits needed to rewrite a file.
type Plan struct {
	file *File

	// Pkg is the name the file uses for the errsite package.
	Pkg string

	// ImportsErrsite reports whether the file already imports errsite
	// under a name usable in code.
	ImportsErrsite bool

	// OptIn reports whether the file imports errsite in any form,
	// including a blank import.
	OptIn bool

	// Definitions are the error definitions found in the file,
	// including those that need no edits.
	Definitions []*Definition

	// Warnings are problems found in error definitions.
	Warnings []Warning

	inserts    []insert
	missingEOL bool // whether the source lacks a final newline
}

// Analyze finds the error definitions in f and plans the edits
// needed to rewrite them.
// It never fails: definitions that can't be rewritten are skipped,
// with a warning if they look like a mistake.
func Analyze(f *File, opts Options) *Plan {
	p := &Plan{
		file:       f,
		missingEOL: len(f.Src) > 0 && f.Src[len(f.Src)-1] != '\n',
	}
	p.pickPkgName()

	var pkg string
	if p.ImportsErrsite {
		pkg = p.Pkg
	}

	funcs := topLevelFuncs(f.AST)
	for _, def := range findDefinitions(f, pkg, &p.Warnings) {
		p.Definitions = append(p.Definitions, def)
		p.planDefinition(def, funcs, opts)
	}

	if !p.ImportsErrsite && len(p.inserts) > 0 {
		p.inserts = append(p.inserts, importInsert(f.AST))
	}

	sort.SliceStable(p.inserts, func(i, j int) bool {
		return p.inserts[i].Pos() < p.inserts[j].Pos()
	})
	return p
}

// NeedsRewrite reports whether applying the plan changes the file.
func (p *Plan) NeedsRewrite() bool {
	return len(p.inserts) > 0
}

// Pending reports whether def needs edits.
func (p *Plan) Pending(def *Definition) bool {
	for _, it := range p.inserts {
		if it.owner() == def {
			return true
		}
	}
	return false
}

// pickPkgName finds the name under which the file imports errsite,
// or picks an unused identifier to import it under.
func (p *Plan) pickPkgName() {
	p.Pkg = "errsite"
	for _, imp := range p.file.AST.Imports {
		if path, err := strconv.Unquote(imp.Path.Value); err != nil || path != ImportPath {
			continue
		}
		p.OptIn = true

		if imp.Name == nil {
			p.ImportsErrsite = true
			return
		}
		if name := imp.Name.Name; name != "_" && name != "." {
			// Use the name it's imported under.
			p.Pkg = name
			p.ImportsErrsite = true
			return
		}
	}

	idents := make(map[string]struct{})
	ast.Inspect(p.file.AST, func(n ast.Node) bool {
		if ident, ok := n.(*ast.Ident); ok {
			idents[ident.Name] = struct{}{}
		}
		return true
	})

	// Prefer "errsite" if it's available.
	for i := 1; ; i++ {
		candidate := "errsite"
		if i > 1 {
			candidate += strconv.Itoa(i)
		}
		if _, ok := idents[candidate]; !ok {
			p.Pkg = candidate
			return
		}
	}
}

// Apply writes the rewritten source to w.
func (p *Plan) Apply(w io.Writer) error {
	out := bytes.NewBuffer(nil)
	src := p.file.Src
	tokFile := p.file.Fset.File(p.file.AST.Pos())

	var lastOffset int
	for _, it := range p.inserts {
		offset := tokFile.Offset(it.Pos())
		out.Write(src[lastOffset:offset])
		lastOffset = offset
		it.write(out, p)
	}
	out.Write(src[lastOffset:]) // flush remaining

	_, err := w.Write(out.Bytes())
	return errors.Wrap(err, "write")
}

// Bytes returns the rewritten source.
func (p *Plan) Bytes() []byte {
	var buf bytes.Buffer
	_ = p.Apply(&buf) // bytes.Buffer never fails
	return buf.Bytes()
}

// Edit is a single insertion into the original source.
type Edit struct {
	Pos     token.Pos
	NewText []byte
}

// Edits returns the insertions needed to rewrite def,
// along with the errsite import if the file lacks it.
// If def is nil, Edits returns the insertions for all definitions.
func (p *Plan) Edits(def *Definition) []Edit {
	var edits []Edit
	for _, it := range p.inserts {
		if owner := it.owner(); def != nil && owner != nil && owner != def {
			continue
		}

		var buf bytes.Buffer
		it.write(&buf, p)
		edits = append(edits, Edit{Pos: it.Pos(), NewText: buf.Bytes()})
	}
	return edits
}

// topLevelFuncs returns the names of functions declared in f
// without a receiver.
func topLevelFuncs(f *ast.File) map[string]struct{} {
	funcs := make(map[string]struct{})
	for _, decl := range f.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Recv == nil {
			funcs[fd.Name.Name] = struct{}{}
		}
	}
	return funcs
}
