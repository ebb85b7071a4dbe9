//go:build ignore

package parse

type syntaxError struct{ line int }

func (e *syntaxError) Error() string { return "syntax error" }

type (
	//errsite:error
	ParseError struct {
		Syntax *syntaxError `errsite:"from"`
	}

	// Other is not an error definition.
	Other struct{}
)

func (e *ParseError) Error() string { return e.Syntax.Error() }
