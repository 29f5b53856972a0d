package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/logger"
	"github.com/docket-app/docket/internal/metrics"
)

// docketLog mirrors the Log section of etc/main.toml with files under dir.
func docketLog(dir string) logger.Log {
	file := func(name string) logger.RollingFile {
		return logger.RollingFile{Name: name, MaxSize: 1, MaxBackups: 1, MaxAge: 1}
	}

	return logger.Log{
		LogLevel:    "trace",
		AppName:     "docket",
		ServiceName: "docket-web",
		File: logger.LogFile{
			Enabled: true,
			Path:    dir,
			Access:  file("access.log"),
			Error:   file("error.log"),
			Info:    file("info.log"),
			Trace:   file("trace.log"),
			Warn:    file("warn.log"),
		},
	}
}

func keepGlobalLogger(t *testing.T) {
	t.Helper()

	prev, level := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(level)
	})
}

func TestInitRejectsConfig(t *testing.T) {
	keepGlobalLogger(t)

	tests := map[string]struct {
		edit func(*logger.Log)
		want error
	}{
		"unknown level":   {func(l *logger.Log) { l.LogLevel = "loud" }, logger.ErrUnknownLevel},
		"no service name": {func(l *logger.Log) { l.ServiceName = "" }, logger.ErrServiceNameIsEmpty},
		"no app name":     {func(l *logger.Log) { l.AppName = "" }, logger.ErrAppNameIsEmpty},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := docketLog(t.TempDir())
			tc.edit(&cfg)

			require.ErrorIs(t, logger.Init(cfg), tc.want)
		})
	}
}

func TestLevelWriterRoutes(t *testing.T) {
	var errOut, infoOut, traceOut, warnOut bytes.Buffer

	l := zerolog.New(&logger.LevelWriter{
		ErrorWriter: &errOut,
		InfoWriter:  &infoOut,
		TraceWriter: &traceOut,
		WarnWriter:  &warnOut,
	}).Level(zerolog.TraceLevel)

	l.Trace().Msg("autosave scheduled")
	l.Debug().Msg("session resolved")
	l.Info().Msg("document created")
	l.Warn().Msg("consent pending")
	l.Error().Msg("flush failed")

	assert.Contains(t, traceOut.String(), "autosave scheduled")
	assert.Contains(t, infoOut.String(), "session resolved")
	assert.Contains(t, infoOut.String(), "document created")
	assert.Contains(t, warnOut.String(), "consent pending")
	assert.Contains(t, errOut.String(), "flush failed")

	assert.NotContains(t, infoOut.String(), "consent pending")
	assert.NotContains(t, errOut.String(), "document created")
}

func TestInitWritesLevelFiles(t *testing.T) {
	keepGlobalLogger(t)

	dir := filepath.Join(t.TempDir(), "log")
	require.NoError(t, logger.Init(docketLog(dir)))

	log.Info().Str("document_id", "abc").Msg("document created")
	log.Warn().Msg("consent pending")
	log.Error().Err(errors.New("no such table: documents")).Msg("flush failed")
	log.Trace().Msg("autosave scheduled")

	read := func(name string) string {
		t.Helper()

		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)

		return string(b)
	}

	var line struct {
		App        string `json:"app"`
		Level      string `json:"level"`
		DocumentID string `json:"document_id"`
		Message    string `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(read("info.log"))), &line))
	assert.Equal(t, "docket", line.App)
	assert.Equal(t, "info", line.Level)
	assert.Equal(t, "abc", line.DocumentID)
	assert.Equal(t, "document created", line.Message)

	assert.Contains(t, read("warn.log"), "consent pending")
	assert.Contains(t, read("error.log"), "no such table: documents")
	assert.Contains(t, read("trace.log"), "autosave scheduled")
	assert.NotContains(t, read("info.log"), "flush failed")
}

func TestInitCountsStatements(t *testing.T) {
	keepGlobalLogger(t)

	cfg := docketLog(t.TempDir())
	cfg.ServiceName = "docket-count"
	require.NoError(t, logger.Init(cfg))

	log.Warn().Msg("consent pending")
	log.Warn().Msg("consent pending")
	log.Info().Msg("document created")

	app := fiber.New()
	app.Get(metrics.Path, metrics.Handler())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, metrics.Path, nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `docket_log_statements_total{level="warn",service="docket-count"} 2`)
	assert.Contains(t, string(body), `docket_log_statements_total{level="info",service="docket-count"} 1`)
}
