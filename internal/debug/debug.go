// Package debug provides invariant assertions for protocol discipline
// violations. Violations indicate a bug in the graph-editing code path,
// not a user-triggerable condition, so assertions panic when debug mode
// is on and are no-ops otherwise.
package debug

import (
	"fmt"
	"os"
	"strconv"

	"github.com/davecgh/go-spew/spew"
)

var enabled bool

func init() {
	var err error
	enabled, err = strconv.ParseBool(os.Getenv("SYNTH_DEBUG"))
	if err != nil {
		enabled = false
	}
}

// Enabled reports whether debug assertions are on.
func Enabled() bool {
	return enabled
}

// SetEnabled toggles assertions. Tests use it to exercise fatal paths.
func SetEnabled(on bool) {
	enabled = on
}

// Assert panics with a formatted message and a dump of provided state if
// condition is false and debug mode is on.
func Assert(condition bool, msg string, state ...interface{}) {
	if !enabled || condition {
		return
	}
	if len(state) > 0 {
		panic(fmt.Sprintf("synth: %s\n%s", msg, spew.Sdump(state...)))
	}
	panic(fmt.Sprintf("synth: %s", msg))
}
