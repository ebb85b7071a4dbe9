package rewrite

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	_errorDirective       = regexp.MustCompile(`^//errsite:error($|\s)`)
	_transparentDirective = regexp.MustCompile(`^//errsite:transparent($|\s)`)
)

// _tagKey is the struct tag key that marks convert-from fields:
//
//	Open *fs.PathError `errsite:"from"`
const _tagKey = "errsite"

// Definition is a struct type marked with the //errsite:error directive.
type Definition struct {
	Spec *ast.TypeSpec

	// Name is the name of the type.
	Name string

	// Transparent reports whether the type carries
	// the //errsite:transparent directive.
	Transparent bool

	// ValueReceiver reports whether the Error method of the type
	// has a value receiver, so conversions return values, not pointers.
	ValueReceiver bool

	// Fields are the convert-from fields of the type.
	Fields []*FromField
}

// FromField is a struct field tagged `errsite:"from"`.
type FromField struct {
	Field *ast.Field

	// Name is the name of the field.
	Name string

	// Source is the error type the field converts from.
	Source ast.Expr

	// Wrapped reports whether the field type
	// is already *errsite.Located[Source].
	Wrapped bool

	// Func is the name of the conversion function for this field,
	// or empty if the field has no conversion of its own.
	Func string
}

// findDefinitions returns the struct types in f
// marked with the //errsite:error directive
// that have at least one usable convert-from field.
//
// pkg is the name errsite is imported under, or empty if it isn't.
func findDefinitions(f *File, pkg string, warnings *[]Warning) []*Definition {
	warnf := func(pos token.Pos, format string, args ...any) {
		*warnings = append(*warnings, Warning{Pos: pos, Msg: fmt.Sprintf(format, args...)})
	}

	valueRecv := valueReceivers(f.AST)

	var defs []*Definition
	for _, decl := range f.AST.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}

		for _, spec := range gen.Specs {
			spec := spec.(*ast.TypeSpec)

			doc := spec.Doc
			if doc == nil && !gen.Lparen.IsValid() {
				// type Foo struct{...}
				doc = gen.Doc
			}
			if !hasDirective(doc, _errorDirective) {
				continue
			}

			def := &Definition{
				Spec:          spec,
				Name:          spec.Name.Name,
				Transparent:   hasDirective(doc, _transparentDirective),
				ValueReceiver: valueRecv[spec.Name.Name],
			}

			if spec.TypeParams != nil {
				warnf(spec.Pos(), "skipping generic error type %v", def.Name)
				continue
			}
			st, ok := spec.Type.(*ast.StructType)
			if !ok || spec.Assign.IsValid() {
				warnf(spec.Pos(), "skipping error type %v: not a struct type", def.Name)
				continue
			}
			if def.Transparent && st.Fields.NumFields() != 1 {
				warnf(spec.Pos(), "skipping transparent error type %v: want 1 field, got %d", def.Name, st.Fields.NumFields())
				continue
			}

			def.Fields = fromFields(def, st, pkg, warnf)
			if len(def.Fields) == 0 {
				continue
			}
			defs = append(defs, def)
		}
	}
	return defs
}

func fromFields(
	def *Definition,
	st *ast.StructType,
	pkg string,
	warnf func(token.Pos, string, ...any),
) []*FromField {
	var fields []*FromField
	seen := make(map[string]string)    // source type -> field name
	bases := make(map[string][]string) // unqualified name -> source types
	for _, field := range st.Fields.List {
		if !isFromField(field) {
			continue
		}

		switch len(field.Names) {
		case 0:
			warnf(field.Pos(), "skipping embedded field in %v: convert-from fields must be named", def.Name)
			continue
		case 1:
			// ok
		default:
			warnf(field.Pos(), "skipping fields %v in %v: convert-from fields must be declared separately", identNames(field.Names), def.Name)
			continue
		}

		ff := &FromField{
			Field:  field,
			Name:   field.Names[0].Name,
			Source: field.Type,
		}
		if inner, ok := locatedElem(field.Type, pkg); ok {
			ff.Source = inner
			ff.Wrapped = true
		}

		suffix, ok := funcSuffix(ff.Source)
		if !ok {
			warnf(field.Pos(), "skipping field %v.%v: unsupported type %v", def.Name, ff.Name, types.ExprString(ff.Source))
			continue
		}

		key := types.ExprString(ff.Source)
		if prev, ok := seen[key]; ok {
			warnf(field.Pos(), "field %v.%v: %v already converts from %v", def.Name, ff.Name, prev, key)
		} else {
			seen[key] = ff.Name
			ff.Func = suffix
			bases[suffix] = append(bases[suffix], key)
		}
		fields = append(fields, ff)
	}

	// Distinct types that share a name, like *xml.SyntaxError
	// and *json.SyntaxError, are told apart by their package.
	kept := fields[:0]
	used := make(map[string]string) // function name -> field name
	for _, ff := range fields {
		if ff.Func == "" {
			kept = append(kept, ff)
			continue
		}

		name := ff.Func
		if len(bases[name]) > 1 {
			name = qualifiedSuffix(ff.Source)
		}
		name = def.Name + "From" + name

		if prev, ok := used[name]; ok {
			warnf(ff.Field.Pos(), "skipping field %v.%v: %v.%v already uses conversion %v", def.Name, ff.Name, def.Name, prev, name)
			continue
		}
		used[name] = ff.Name
		ff.Func = name
		kept = append(kept, ff)
	}
	return kept
}

// planDefinition records the edits needed to rewrite def.
func (p *Plan) planDefinition(def *Definition, funcs map[string]struct{}, opts Options) {
	tokFile := p.file.Fset.File(p.file.AST.Pos())
	eof := tokFile.Pos(len(p.file.Src))

	for _, ff := range def.Fields {
		if !ff.Wrapped {
			p.inserts = append(p.inserts,
				&insertLocatedOpen{def: def, Before: ff.Source.Pos()},
				&insertLocatedClose{def: def, After: ff.Source.End()},
			)
		}

		if ff.Func == "" {
			continue
		}
		if _, ok := funcs[ff.Func]; ok {
			continue
		}
		funcs[ff.Func] = struct{}{}

		p.inserts = append(p.inserts, &insertConversion{
			def:      def,
			At:       eof,
			Field:    ff,
			Source:   string(p.file.Src[tokFile.Offset(ff.Source.Pos()):tokFile.Offset(ff.Source.End())]),
			NoInline: opts.NoInline,
			Newline:  p.missingEOL,
		})
		p.missingEOL = false
	}
}

func hasDirective(doc *ast.CommentGroup, re *regexp.Regexp) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if re.MatchString(c.Text) {
			return true
		}
	}
	return false
}

func isFromField(field *ast.Field) bool {
	if field.Tag == nil {
		return false
	}
	tag, err := strconv.Unquote(field.Tag.Value)
	if err != nil {
		return false
	}
	value, ok := reflect.StructTag(tag).Lookup(_tagKey)
	if !ok {
		return false
	}
	for _, opt := range strings.Split(value, ",") {
		if strings.TrimSpace(opt) == "from" {
			return true
		}
	}
	return false
}

// locatedElem reports whether expr is *pkg.Located[T],
// returning T if so.
func locatedElem(expr ast.Expr, pkg string) (ast.Expr, bool) {
	if pkg == "" {
		return nil, false
	}

	star, ok := expr.(*ast.StarExpr)
	if !ok {
		return nil, false
	}
	idx, ok := star.X.(*ast.IndexExpr)
	if !ok {
		return nil, false
	}
	sel, ok := idx.X.(*ast.SelectorExpr)
	if !ok || !isIdent(sel.X, pkg) || sel.Sel.Name != "Located" {
		return nil, false
	}
	return idx.Index, true
}

// funcSuffix derives the name of a conversion function from a type:
//
//	*fs.PathError -> PathError
//	error         -> Error
//	*queryErr     -> QueryErr
func funcSuffix(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		return exported(e.Name), true
	case *ast.StarExpr:
		return funcSuffix(e.X)
	case *ast.ParenExpr:
		return funcSuffix(e.X)
	case *ast.SelectorExpr:
		return exported(e.Sel.Name), true
	case *ast.IndexExpr:
		return funcSuffix(e.X)
	case *ast.IndexListExpr:
		return funcSuffix(e.X)
	default:
		return "", false
	}
}

// qualifiedSuffix is funcSuffix with the package name
// of an imported type prepended:
//
//	*json.SyntaxError -> JsonSyntaxError
//	*queryErr         -> QueryErr
func qualifiedSuffix(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return qualifiedSuffix(e.X)
	case *ast.ParenExpr:
		return qualifiedSuffix(e.X)
	case *ast.IndexExpr:
		return qualifiedSuffix(e.X)
	case *ast.IndexListExpr:
		return qualifiedSuffix(e.X)
	case *ast.SelectorExpr:
		if pkg, ok := e.X.(*ast.Ident); ok {
			return exported(pkg.Name) + exported(e.Sel.Name)
		}
	}
	suffix, _ := funcSuffix(expr)
	return suffix
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

// valueReceivers returns the types in f
// whose Error method has a value receiver.
func valueReceivers(f *ast.File) map[string]bool {
	recvs := make(map[string]bool)
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || len(fd.Recv.List) != 1 || fd.Name.Name != "Error" {
			continue
		}
		if ident, ok := fd.Recv.List[0].Type.(*ast.Ident); ok {
			recvs[ident.Name] = true
		}
	}
	return recvs
}

func isIdent(expr ast.Expr, name string) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == name
}

func identNames(idents []*ast.Ident) []string {
	names := make([]string, len(idents))
	for i, ident := range idents {
		names[i] = ident.Name
	}
	return names
}
