package spex

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Options configures an [Instance]. A nil *Options uses the documented
// defaults.
type Options struct {
	// Logger receives one debug-level line when each combinator call
	// through this Instance starts and one when it settles, or an
	// error-level line when it fails. Individual iterations and
	// back-pressure waits are not logged.
	// It never replaces a combinator's returned error - logging is purely
	// observational, matching §7's "never swallows a failure" propagation
	// policy. Defaults to a disabled logger, matching the corpus's
	// "logging is off unless configured" posture.
	Logger *logiface.Logger[*stumpy.Event]
}

func (o *Options) logger() *logiface.Logger[*stumpy.Event] {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return disabledLogger
}

var disabledLogger = stumpy.L.New(stumpy.L.WithLevel(logiface.LevelDisabled))
