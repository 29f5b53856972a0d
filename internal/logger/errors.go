package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned when Log.appName is missing.
	ErrAppNameIsEmpty = errors.New("log.appName is required")

	// ErrServiceNameIsEmpty is returned when Log.serviceName is missing.
	ErrServiceNameIsEmpty = errors.New("log.serviceName is required")

	// ErrUnknownLevel is returned when Log.logLevel names no zerolog level.
	ErrUnknownLevel = errors.New("unknown log level")
)

// dropped reports an event zerolog failed to write. The log is the broken
// sink here, so stderr is the only place left.
func dropped(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "docket: log event dropped: %v\n", err)
}
