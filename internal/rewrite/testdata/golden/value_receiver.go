//go:build ignore

package db

import "net"

//errsite:error
type DialError struct {
	Net net.Error `errsite:"from"`
}

func (e DialError) Error() string { return e.Net.Error() }
