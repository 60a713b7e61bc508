package lib

import "fmt"

// Assert panics when the invariant does not hold.
// The params may be:
// - error (asserts it is nil)
// - bool, optionally followed by a message
func Assert(params ...interface{}) {
	cond := params[0]
	if cond == nil {
		return
	}

	switch v := cond.(type) {
	case error:
		panic(fmt.Sprintf("assertion failed: %v", v))
	case bool:
		if v {
			return
		}
		msg := "assertion failed"
		if len(params) > 1 {
			msg = fmt.Sprintf("%v: %v", msg, params[1])
		}
		panic(msg)
	}

	panic(cond)
}
