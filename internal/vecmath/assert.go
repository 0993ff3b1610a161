package vecmath

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

var assertHandler atomic.Pointer[func(msg string)]

// SetAssertHandler installs the function notified about invariant violations in
// debug builds. A nil handler restores the default, which logs a warning.
func SetAssertHandler(h func(msg string)) {
	if h == nil {
		assertHandler.Store(nil)
		return
	}
	assertHandler.Store(&h)
}

// DebugChecks reports whether invariant checks are compiled in.
func DebugChecks() bool { return debug }

func assertf(cond bool, format string, args ...any) {
	if !debug || cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if h := assertHandler.Load(); h != nil {
		(*h)(msg)
		return
	}
	slog.Default().Warn("vecmath assertion", "msg", msg)
}
