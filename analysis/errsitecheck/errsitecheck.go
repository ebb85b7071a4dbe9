// Package errsitecheck defines an analyzer that reports
// error definitions that have not been rewritten by the errsite command.
//
// An error definition is a struct type marked with //errsite:error.
// Until it's rewritten, its `errsite:"from"` fields don't record
// where errors were converted, and its conversion functions don't exist.
// Each diagnostic carries a suggested fix with the same edits
// that 'errsite -w' would make.
package errsitecheck

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"braces.dev/errsite/internal/config"
	"braces.dev/errsite/internal/rewrite"
)

const _doc = `report error definitions that were not rewritten by errsite

A struct type marked with //errsite:error must have its
errsite:"from" fields wrapped in errsite.Located and a conversion
function for each of them. Run 'errsite -w' or apply the suggested fixes.`

// Analyzer reports unrewritten error definitions.
var Analyzer = &analysis.Analyzer{
	Name:     "errsitecheck",
	Doc:      _doc,
	URL:      "https://pkg.go.dev/braces.dev/errsite/analysis/errsitecheck",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var _noInline bool

func init() {
	_noInline = config.Default().NoInline
	Analyzer.Flags.BoolVar(&_noInline, "noinline", _noInline, "mark suggested conversion functions //go:noinline")
}

func run(pass *analysis.Pass) (any, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Preorder([]ast.Node{(*ast.File)(nil)}, func(n ast.Node) {
		checkFile(pass, n.(*ast.File))
	})
	return nil, nil
}

func checkFile(pass *analysis.Pass, file *ast.File) {
	tokFile := pass.Fset.File(file.Pos())
	if tokFile == nil {
		return
	}

	src, err := pass.ReadFile(tokFile.Name())
	if err != nil || len(src) != tokFile.Size() {
		// Edits are offsets into the parsed source.
		return
	}

	plan := rewrite.Analyze(&rewrite.File{
		Fset: pass.Fset,
		AST:  file,
		Src:  src,
	}, rewrite.Options{NoInline: _noInline})

	for _, w := range plan.Warnings {
		pass.Reportf(w.Pos, "%s", w.Msg)
	}

	for _, def := range plan.Definitions {
		if !plan.Pending(def) {
			continue
		}

		var edits []analysis.TextEdit
		for _, e := range plan.Edits(def) {
			edits = append(edits, analysis.TextEdit{
				Pos:     e.Pos,
				End:     e.Pos,
				NewText: e.NewText,
			})
		}

		pass.Report(analysis.Diagnostic{
			Pos:     def.Spec.Name.Pos(),
			End:     def.Spec.Name.End(),
			Message: "error definition " + def.Name + " is not rewritten; run errsite -w",
			SuggestedFixes: []analysis.SuggestedFix{{
				Message:   "Rewrite " + def.Name,
				TextEdits: edits,
			}},
		})
	}
}
