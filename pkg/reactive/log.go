package reactive

import (
	"log/slog"
	"sync/atomic"
)

// DebugMode gates verbose runtime traces (batch boundaries, individual
// writes, effect runs). Meant to be set once at startup.
var DebugMode bool

var logger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger used for cycle reports, recovered panics and
// debug traces. Passing nil restores slog.Default.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}
