package log

import (
	"github.com/jonboulle/clockwork"
)

var (
	_ simpleLoggerOption = coloringOption(false)
	_ simpleLoggerOption = minLevelOption(INFO)
	_ simpleLoggerOption = clockOption{}
)

type coloringOption bool

func (coloring coloringOption) applySimpleOption(l *defaultLogger) {
	l.coloring = bool(coloring)
}

func WithColoring() coloringOption {
	return true
}

type minLevelOption Level

func (lvl minLevelOption) applySimpleOption(l *defaultLogger) {
	l.minLevel = Level(lvl)
}

func WithMinLevel(lvl Level) minLevelOption {
	return minLevelOption(lvl)
}

type clockOption struct {
	clock clockwork.Clock
}

func (o clockOption) applySimpleOption(l *defaultLogger) {
	if o.clock != nil {
		l.clock = o.clock
	}
}

// WithClock replaces the clock used for timestamps of log lines
func WithClock(clock clockwork.Clock) clockOption {
	return clockOption{clock: clock}
}

// Option configures the trace-to-log adapters such as Pool
type Option func(w *wrapper)

// WithLevelFilter drops events below lvl before they reach the external logger
func WithLevelFilter(lvl Level) Option {
	return func(w *wrapper) {
		w.minLevel = lvl
	}
}
