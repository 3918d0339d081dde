package logger

import (
	"strings"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/rakeplan/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// New returns a Logger for the given component. The output format is chosen
// from the APP_ENV variable and the level from LOG_LEVEL.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// SetLevel sets the global minimum level from its name ("debug", "info",
// "warn", "error"). Unknown names leave the level untouched and return false.
func SetLevel(name string) bool {
	if name == "" {
		return false
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return false
	}
	zerolog.SetGlobalLevel(lvl)
	return true
}
