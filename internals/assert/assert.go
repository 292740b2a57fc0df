// Package assert aborts startup on conditions the daemon cannot run without.
// Only for wiring-time invariants; request paths return errors instead.
package assert

import "fmt"

func Assert(condition bool, msg string, other ...any) {
	if !condition {
		panic(fmt.Sprint(append([]any{msg}, other...)...))
	}
}

// AssertNil panics with msg when err is non-nil.
func AssertNil(err error, msg string, other ...any) {
	if err != nil {
		Assert(false, msg+": "+err.Error(), other...)
	}
}
