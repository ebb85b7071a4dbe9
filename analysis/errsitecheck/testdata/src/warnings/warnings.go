package warnings

import "io/fs"

//errsite:error
type Generic[T error] struct { // want `skipping generic error type Generic`
	Err T `errsite:"from"`
}

//errsite:error
type Embedded struct {
	*fs.PathError `errsite:"from"` // want `skipping embedded field in Embedded: convert-from fields must be named`
}

// Plain has no directive, so its tag is ignored.
type Plain struct {
	Open *fs.PathError `errsite:"from"`
}
