package pending

import "io/fs"

//errsite:error
type LoadError struct { // want `error definition LoadError is not rewritten; run errsite -w`
	Open *fs.PathError `errsite:"from"`
}

func (e *LoadError) Error() string { return "load: " + e.Open.Error() }
