package pending

import "os"

//errsite:error
//errsite:transparent
type LinkError struct { // want `error definition LinkError is not rewritten; run errsite -w`
	Err *os.LinkError `errsite:"from"`
}

func (e LinkError) Error() string { return e.Err.Error() }
