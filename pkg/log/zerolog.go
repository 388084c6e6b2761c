// Package log provides a zerolog-backed Logger implementation.
//
// The zerolog backend emits the structured objects defined by the errors
// package (MarshalZerologObject) without reflection, which makes it the
// preferred provider for high-throughput adapt loops.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	adapterrors "github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// ZerologLogger implements Logger on top of zerolog.Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a zerolog-backed Logger writing to w at the
// given minimum level.
//
// Example:
//
//	logger := log.NewZerologLogger(os.Stderr, log.LevelInfo)
//	logger.Info("Adapt completed", log.VocabSizeKey, 10000)
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.zl.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	z.emit(z.zl.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.zl.Warn(), msg, fields)
}

// Error implements Logger.Error.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	z.emit(z.zl.Error(), msg, fields)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	c := z.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		c = c.Interface(key, fields[i+1])
	}
	logger := c.Logger()
	return &ZerologLogger{zl: logger}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(ctx context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel()
}

// emit writes one event. A bare leading error value is attached via
// Err; error and warning types implementing zerolog.LogObjectMarshaler
// are embedded as structured objects.
func (z *ZerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	i := 0
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = e.Err(err)
			if obj, ok := err.(zerolog.LogObjectMarshaler); ok {
				e = e.EmbedObject(obj)
			}
			i = 1
		}
	}
	for ; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologProvider serves ZerologLogger instances and supports level swaps.
type zerologProvider struct {
	mu     sync.RWMutex
	writer io.Writer
	logger *ZerologLogger
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = NewZerologLogger(p.writer, level)
}

// UseZerolog installs a zerolog-backed provider as the process-wide default
// and routes library warnings to it as structured objects. It returns the
// installed logger.
func UseZerolog(w io.Writer, level Level) Logger {
	logger := NewZerologLogger(w, level)
	SetLoggerProvider(&zerologProvider{writer: w, logger: logger})

	adapterrors.SetZerologWarnFunc(func(warning error) {
		e := logger.zl.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			e = e.EmbedObject(obj)
		} else {
			e = e.AnErr("warning", warning)
		}
		e.Msg("preprocessing warning")
	})
	return logger
}
