//go:build ignore

package conf

import (
	"encoding/json"
	"encoding/xml"
	"io/fs"
)

//errsite:error
type LoadError struct {
	Open   *fs.PathError     `errsite:"from"`
	Stat   *xml.SyntaxError  `errsite:"from"`
	Decode *json.SyntaxError `errsite:"from"`
	Value  xml.SyntaxError   `errsite:"from"`
}

func (e *LoadError) Error() string { return "load failed" }
