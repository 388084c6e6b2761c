// Package log provides structured logging for preprocessing operations.
//
// The package defines a small slog-compatible Logger interface plus the
// standard attribute keys used across AdaptGo (see attributes.go). Components
// never construct logging backends themselves; they resolve loggers through
// the process-wide provider (provider.go), which makes the backend swappable
// between the default slog adapter, the zerolog backend, and the in-memory
// test logger.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("preprocessing.vectorizer").With(
//	    log.TransformNameKey, "TextVectorizer",
//	)
//	logger.Info("Adapt started",
//	    log.OperationKey, log.OperationAdapt,
//	    log.SamplesKey, 1000,
//	)

package log

import (
	"context"
)

// Logger is a leveled, structured logger. Fields are alternating key-value
// pairs in the slog style; the standard keys from attributes.go keep records
// queryable across components.
//
// Implementations must be safe for concurrent use.
type Logger interface {
	// Debug logs detailed diagnostic information, such as per-chunk
	// progress during a streaming adapt.
	//
	// Example:
	//
	//	logger.Debug("chunk accumulated",
	//	    log.ChunksKey, 12,
	//	    log.SamplesKey, 4096,
	//	)
	Debug(msg string, fields ...any)

	// Info logs operational events: an adapt pass finishing, a state
	// snapshot being written, a pipeline being rebuilt from config.
	//
	// Example:
	//
	//	logger.Info("Adapt completed",
	//	    log.DurationMsKey, 5432,
	//	    log.VocabSizeKey, 10000,
	//	)
	Info(msg string, fields ...any)

	// Warn logs conditions the caller can continue past, such as a
	// vocabulary hitting its size cap or quantile boundaries collapsing.
	//
	// Example:
	//
	//	logger.Warn("vocabulary truncated",
	//	    log.VocabSizeKey, 1000,
	//	    "observed_tokens", 5231,
	//	)
	Warn(msg string, fields ...any)

	// Error logs failures. When the first field is a bare error value,
	// implementations route it through the error attribute so stacktrace
	// and error code expansion apply (see handler.go).
	//
	// Example:
	//
	//	logger.Error("Transform failed",
	//	    err,
	//	    log.OperationKey, log.OperationTransform,
	//	)
	Error(msg string, fields ...any)

	// With returns a Logger that includes the given fields in every
	// subsequent record. Used to build per-transform contextual loggers.
	//
	// Example:
	//
	//	contextLogger := logger.With(
	//	    log.TransformNameKey, "StringLookup",
	//	    log.TransformIDKey, "sl-123",
	//	)
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Callers use it to skip expensive field construction:
	//
	//	if logger.Enabled(ctx, log.LevelDebug) {
	//	    logger.Debug("vocabulary detail", "stats", collectVocabularyStats())
	//	}
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level. The numeric values match slog.Level so the two
// can be converted directly.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the level name as it appears in rendered records.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. Swapping the provider (see
// SetLoggerProvider) redirects all components at once, which the tests use
// to capture library output in memory.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers from this provider.
	SetLevel(level Level)
}
