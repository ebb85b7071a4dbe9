//go:build ignore

package skip

import "io/fs"

//errsite:error
type Generic[T error] struct {
	Err T `errsite:"from"`
}

//errsite:error
type Code int

//errsite:error
//errsite:transparent
type TooMany struct {
	A *fs.PathError `errsite:"from"`
	B *fs.PathError
}

//errsite:error
type Embedded struct {
	*fs.PathError `errsite:"from"`
}

//errsite:error
type Shared struct {
	A, B *fs.PathError `errsite:"from"`
}
