//go:build ignore

package app

import (
	"fmt"

	"example.com/app/config"
)

//errsite:error
//errsite:transparent
type StartError struct {
	Err *config.LoadError `errsite:"from"`
}

func (e *StartError) Error() string { return fmt.Sprint(e.Err) }
