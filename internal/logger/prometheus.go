package logger

import (
	"github.com/rs/zerolog"

	"github.com/docket-app/docket/internal/metrics"
)

// levelCounter is a zerolog hook counting statements per level in
// metrics.LogStatements.
type levelCounter struct {
	service string
}

// Run implements zerolog.Hook.
func (h levelCounter) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}

	metrics.LogStatements.WithLabelValues(h.service, level.String()).Inc()
}
