package core

import "fmt"

// Assert fails fast on a programming error. The message is logged before
// panicking so it shows up even when the panic is recovered further up.
func Assert(cond bool, msg string, args ...interface{}) {
	if cond {
		return
	}
	err := fmt.Errorf("%s: %w", fmt.Sprintf(msg, args...), ErrAssertion)
	LogError("%s", err)
	panic(err)
}
