// Package stdlogger adapts the global zerolog logger to printf style logger
// interfaces such as gorm's logger.Writer.
package stdlogger

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards printf style calls to zerolog.
type Logger struct {
	l zerolog.Logger
}

// New returns a Logger bound to the current global zerolog logger.
func New() *Logger {
	return &Logger{l: log.Logger}
}

// Printf logs at info level.
func (a *Logger) Printf(format string, v ...any) {
	a.l.Info().Msgf(format, v...)
}

// Debugf logs at debug level.
func (a *Logger) Debugf(format string, v ...any) {
	a.l.Debug().Msgf(format, v...)
}

// Infof logs at info level.
func (a *Logger) Infof(format string, v ...any) {
	a.l.Info().Msgf(format, v...)
}

// Warningf logs at warn level.
func (a *Logger) Warningf(format string, v ...any) {
	a.l.Warn().Msgf(format, v...)
}

// Errorf logs at error level.
func (a *Logger) Errorf(format string, v ...any) {
	a.l.Error().Msgf(format, v...)
}
