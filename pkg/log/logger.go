package log

import (
	"fmt"
	"log/slog"
	"os"

	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// SetupLogger installs a JSON slog logger as the process default and routes
// library warnings to it as WARN records.
//
// Emitted records follow the Cloud Logging field conventions (severity,
// message, sourceLocation), so the output can be shipped to a collector
// without further rewriting.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource:   true,
		Level:       ToLogLevel(loglevel),
		ReplaceAttr: renameForCloudLogging,
	}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(os.Stdout, &ops))
	slog.SetDefault(slog.New(handler))

	adapterrors.SetWarningHandler(func(w error) {
		slog.Warn("preprocessing warning", ErrAttr(w))
	})
}

// renameForCloudLogging maps slog's built-in record keys onto the Cloud
// Logging field names.
func renameForCloudLogging(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.LevelKey:
		attr.Key = "severity"
	case slog.MessageKey:
		attr.Key = "message"
	case slog.SourceKey:
		attr.Key = "logging.googleapis.com/sourceLocation"
	}
	return attr
}

// ToLogLevel parses a level name. The empty string selects Info; an unknown
// name panics, since a misspelled level at setup time is a programming error.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level: %q", level))
	}
}

// ErrAttr wraps an error as a slog attribute under ErrAttrKey. ErrFmtHandler
// expands it into stacktrace and error code attributes.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
