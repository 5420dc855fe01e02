package spexerrors

import (
	"fmt"
	"runtime"
	"strings"
)

// modulePrefix marks frames belonging to this library's own packages, so a
// captured stack can be filtered down to caller (user) frames only - the Go
// analog of the teacher's ChainedPromise.creationStack, which is captured
// only in a debug/verbose mode and is meant to point at the call site that
// created the failing value, not at the library's own internals.
const modulePrefix = "github.com/joeycumines/go-spex/"

// CaptureStack captures the current goroutine's call stack, skipping skip
// frames counted from CaptureStack itself: 0 records CaptureStack's own
// frame first, 1 starts at its caller, and so on. It is cheap
// enough to call unconditionally, but callers should still gate it behind a
// debug option, since symbolizing it later is not free.
func CaptureStack(skip int) []uintptr {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+1, pcs)
	return pcs[:n]
}

// FormatStack renders a captured stack, retaining only frames outside this
// library's own packages so the output highlights the caller's code instead
// of internal plumbing.
func FormatStack(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs)
	var b strings.Builder
	b.WriteString("stack trace:")
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, modulePrefix) {
			fmt.Fprintf(&b, "\n  %s\n    %s:%d", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return b.String()
}
