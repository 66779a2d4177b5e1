package log

import "strings"

// Level is a severity of pool event. Pool API calls are logged at TRACE,
// reconciliation and liveness failures at WARN, lifecycle failures at ERROR.
type Level int

const (
	TRACE = Level(iota)
	DEBUG
	INFO
	WARN
	ERROR
	FATAL

	QUIET
)

const colorReset = "\033[0m"

type levelStyle struct {
	label string
	color string
	bold  string
}

var levelStyles = [...]levelStyle{
	TRACE: {label: "TRACE", color: "\033[38m", bold: "\033[47m"},
	DEBUG: {label: "DEBUG", color: "\033[37m", bold: "\033[100m"},
	INFO:  {label: "INFO", color: "\033[36m", bold: "\033[106m"},
	WARN:  {label: "WARN", color: "\033[33m", bold: "\u001B[30m\033[103m"},
	ERROR: {label: "ERROR", color: "\033[31m", bold: "\033[101m"},
	FATAL: {label: "FATAL", color: "\033[41m", bold: "\033[101m"},
	QUIET: {label: "QUIET", color: colorReset},
}

func (l Level) style() levelStyle {
	if l < TRACE || l > QUIET {
		return levelStyles[QUIET]
	}

	return levelStyles[l]
}

func (l Level) String() string {
	return l.style().label
}

func (l Level) BoldColor() string {
	return l.style().bold
}

func (l Level) Color() string {
	return l.style().color
}

// FromString parses level names as they come from TAGPOOL_LOG_SEVERITY_LEVEL.
// Unknown names mean QUIET.
func FromString(l string) Level {
	switch s := strings.ToUpper(strings.TrimSpace(l)); s {
	case "WARNING":
		return WARN
	case "OFF", "NONE", "":
		return QUIET
	default:
		for lvl := TRACE; lvl < QUIET; lvl++ {
			if levelStyles[lvl].label == s {
				return lvl
			}
		}

		return QUIET
	}
}
