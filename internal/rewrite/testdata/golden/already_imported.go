//go:build ignore

package db

import (
	"net"

	es "braces.dev/errsite"
)

//errsite:error
type QueryError struct {
	Conn  *es.Located[*net.OpError] `errsite:"from"`
	Query *queryErr                 `errsite:"from"`
}

func (e *QueryError) Error() string { return "query failed" }

type queryErr struct{ msg string }

func (e *queryErr) Error() string { return e.msg }

// QueryErrorFromOpError is written by hand.
func QueryErrorFromOpError(err *net.OpError) *QueryError {
	return &QueryError{Conn: es.Wrap(err)}
}
