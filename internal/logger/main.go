// Package logger sets up the global zerolog logger.
package logger

import (
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelWriter splits log output by level.
// Trace goes to TraceWriter, warn to WarnWriter, error and above to ErrorWriter,
// everything else to InfoWriter.
type LevelWriter struct {
	io.Writer
	ErrorWriter io.Writer
	InfoWriter  io.Writer
	TraceWriter io.Writer
	WarnWriter  io.Writer
}

// WriteLevel implements zerolog.LevelWriter.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (n int, err error) {
	if l == zerolog.Disabled {
		return 0, nil
	}

	return lw.writerFor(l).Write(p) //nolint:wrapcheck
}

func (lw *LevelWriter) writerFor(l zerolog.Level) io.Writer {
	switch {
	case l == zerolog.TraceLevel:
		return lw.TraceWriter
	case l == zerolog.WarnLevel:
		return lw.WarnWriter
	case l > zerolog.WarnLevel:
		return lw.ErrorWriter
	default:
		return lw.InfoWriter
	}
}

// Init the zerolog logger.
// Depending on the config it enables all, some or no writer at all.
func Init(cfg Log) error {
	logLevel, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrapf(ErrUnknownLevel, "%q", cfg.LogLevel)
	}

	if cfg.ServiceName == "" {
		return ErrServiceNameIsEmpty
	}

	if cfg.AppName == "" {
		return ErrAppNameIsEmpty
	}

	stack := logLevel == zerolog.TraceLevel
	if stack {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
	}

	zerolog.SetGlobalLevel(logLevel)
	zerolog.ErrorHandler = dropped

	var writers []io.Writer

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg))
	}

	if cfg.File.Enabled {
		if w := newRollingLevelFile(cfg.File); w != nil {
			writers = append(writers, w)
		}
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Hook(levelCounter{service: cfg.ServiceName}).
		With().
		Timestamp().
		Str("app", cfg.AppName)

	switch {
	case cfg.ReportCaller && stack:
		ctx = ctx.Stack()
	case cfg.ReportCaller:
		ctx = ctx.Caller()
	}

	log.Logger = ctx.Logger()

	return nil
}

// NewRollingFile returns a lumberjack writer for f inside dir.
func NewRollingFile(dir string, f RollingFile) io.Writer {
	return &lumberjack.Logger{
		Filename:   path.Join(dir, f.Name),
		MaxSize:    f.MaxSize,
		MaxAge:     f.MaxAge,
		MaxBackups: f.MaxBackups,
	}
}

func newRollingLevelFile(cfg LogFile) io.Writer {
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil { //nolint:mnd
		log.Error().Err(err).Str("path", cfg.Path).Msg("can't create log directory")

		return nil
	}

	return &LevelWriter{
		ErrorWriter: NewRollingFile(cfg.Path, cfg.Error),
		InfoWriter:  NewRollingFile(cfg.Path, cfg.Info),
		TraceWriter: NewRollingFile(cfg.Path, cfg.Trace),
		WarnWriter:  NewRollingFile(cfg.Path, cfg.Warn),
	}
}

// NewConsoleWriter writes info and debug to stdout and the rest to stderr,
// pretty printed when Console.UseConsoleWriter is set.
func NewConsoleWriter(cfg Log) io.Writer {
	wrap := func(out io.Writer) io.Writer {
		if !cfg.Console.UseConsoleWriter {
			return out
		}

		return zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFieldFormat}
	}

	return &LevelWriter{
		ErrorWriter: wrap(os.Stderr),
		InfoWriter:  wrap(os.Stdout),
		TraceWriter: wrap(os.Stderr),
		WarnWriter:  wrap(os.Stderr),
	}
}
