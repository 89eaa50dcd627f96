package trace

import "fmt"

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff   Level = iota // no tracing
	LevelError              // only dumped on a fatal abort
	LevelBatch              // batch boundaries
	LevelTest               // per-test spans
	LevelDebug              // every run and watchdog action
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelBatch:
		return "batch"
	case LevelTest:
		return "test"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off", "OFF":
		return LevelOff, nil
	case "error", "ERROR":
		return LevelError, nil
	case "batch", "BATCH":
		return LevelBatch, nil
	case "test", "TEST":
		return LevelTest, nil
	case "debug", "DEBUG":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|batch|test|debug)", s)
	}
}

// ShouldEmit returns true if the given scope should emit at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return false // only reachable through a ring dump
	case LevelBatch:
		return scope <= ScopeBatch
	case LevelTest:
		return scope <= ScopeTest
	case LevelDebug:
		return true
	}
	return false
}
