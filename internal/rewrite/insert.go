package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
)

// insert is a request to add something to the source code.
type insert interface {
	Pos() token.Pos // position to insert at
	String() string // description for debugging

	// owner is the definition the insert belongs to,
	// or nil if it serves the whole file.
	owner() *Definition

	write(out *bytes.Buffer, p *Plan)
}

// insertImport adds an errsite import declaration to the file
// right after the given position.
type insertImport struct {
	AddKeyword bool      // whether the "import" keyword should be added
	At         token.Pos // position to insert at
}

// importInsert places the errsite import after the last existing import.
// If the last import is part of a group, it joins the group:
//
//	import (
//		"foo"; "braces.dev/errsite"
//	)
//
// Otherwise it becomes a new import declaration:
//
//	import "foo"; import "braces.dev/errsite"
func importInsert(f *ast.File) *insertImport {
	var (
		lastImportSpec *ast.ImportSpec
		lastImportDecl *ast.GenDecl
	)
	for _, decl := range f.Decls {
		decl, ok := decl.(*ast.GenDecl)
		if !ok || decl.Tok != token.IMPORT {
			break
		}
		lastImportDecl = decl
		if decl.Lparen.IsValid() && len(decl.Specs) > 0 {
			lastImportSpec, _ = decl.Specs[len(decl.Specs)-1].(*ast.ImportSpec)
		}
	}

	switch {
	case lastImportSpec != nil:
		// import ("foo")
		return &insertImport{At: lastImportSpec.End()}
	case lastImportDecl != nil:
		// import "foo"
		return &insertImport{At: lastImportDecl.End(), AddKeyword: true}
	default:
		// package foo
		return &insertImport{At: f.Name.End(), AddKeyword: true}
	}
}

func (e *insertImport) Pos() token.Pos { return e.At }

func (e *insertImport) owner() *Definition { return nil }

func (e *insertImport) String() string {
	if e.AddKeyword {
		return "add import statement"
	}
	return "add import"
}

func (e *insertImport) write(out *bytes.Buffer, p *Plan) {
	out.WriteString("; ")
	if e.AddKeyword {
		out.WriteString("import ")
	}
	if p.Pkg == "errsite" {
		out.WriteString(strconv.Quote(ImportPath))
	} else {
		fmt.Fprintf(out, "%s %q", p.Pkg, ImportPath)
	}
}

// insertLocatedOpen starts wrapping a field type in errsite.Located.
//
//	*fs.PathError -> *errsite.Located[*fs.PathError
//
// This needs a corresponding insertLocatedClose.
type insertLocatedOpen struct {
	def    *Definition
	Before token.Pos // position to insert before
}

func (e *insertLocatedOpen) Pos() token.Pos { return e.Before }

func (e *insertLocatedOpen) owner() *Definition { return e.def }

func (e *insertLocatedOpen) String() string { return "<errsite.Located>" }

func (e *insertLocatedOpen) write(out *bytes.Buffer, p *Plan) {
	fmt.Fprintf(out, "*%s.Located[", p.Pkg)
}

// insertLocatedClose finishes wrapping a field type in errsite.Located.
//
//	*fs.PathError -> *fs.PathError]
type insertLocatedClose struct {
	def   *Definition
	After token.Pos // position to insert after
}

func (e *insertLocatedClose) Pos() token.Pos { return e.After }

func (e *insertLocatedClose) owner() *Definition { return e.def }

func (e *insertLocatedClose) String() string { return "</errsite.Located>" }

func (e *insertLocatedClose) write(out *bytes.Buffer, _ *Plan) {
	out.WriteString("]")
}

// insertConversion appends a conversion function to the file.
//
//	func LoadErrorFromPathError(err *fs.PathError) *LoadError {
//		return &LoadError{Open: errsite.WrapCaller(errsite.GetCaller(), err)}
//	}
type insertConversion struct {
	def *Definition
	At  token.Pos // end of file

	Field    *FromField
	Source   string // source text of the field's error type
	NoInline bool   // whether to add //go:noinline
	Newline  bool   // whether the file needs a final newline first
}

func (e *insertConversion) Pos() token.Pos { return e.At }

func (e *insertConversion) owner() *Definition { return e.def }

func (e *insertConversion) String() string { return "func " + e.Field.Func }

func (e *insertConversion) write(out *bytes.Buffer, p *Plan) {
	result, literal := "*"+e.def.Name, "&"+e.def.Name
	if e.def.ValueReceiver {
		result, literal = e.def.Name, e.def.Name
	}

	if e.Newline {
		out.WriteString("\n")
	}
	fmt.Fprintf(out, "\n// %s returns a %s holding err\n", e.Field.Func, result)
	out.WriteString("// and the location of its caller.\n")
	if e.NoInline {
		out.WriteString("//\n//go:noinline\n")
	}
	fmt.Fprintf(out, "func %s(err %s) %s {\n", e.Field.Func, e.Source, result)
	fmt.Fprintf(out, "\treturn %s{%s: %s.WrapCaller(%s.GetCaller(), err)}\n", literal, e.Field.Name, p.Pkg, p.Pkg)
	out.WriteString("}\n")
}
