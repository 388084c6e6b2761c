// Package log provides the process-wide logger provider.
//
// This file contains the default slog-backed provider used by the rest of the
// library. Components obtain contextual loggers through GetLoggerWithName and
// never construct logging backends themselves, which keeps the backend
// swappable (see zerolog.go for an alternative provider).

package log

import (
	"context"
	"log/slog"
	"sync"
)

var (
	providerMu      sync.RWMutex
	currentProvider LoggerProvider = newSlogProvider()
)

// GetLogger returns the default logger from the current provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return currentProvider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with a component name.
//
// Example:
//
//	logger := log.GetLoggerWithName("preprocessing.vectorizer")
//	logger.Info("Adapt started", log.SamplesKey, 1000)
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return currentProvider.GetLoggerWithName(name)
}

// SetLevel sets the minimum level on the current provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	currentProvider.SetLevel(level)
}

// SetLoggerProvider replaces the process-wide provider. Passing nil restores
// the default slog-backed provider.
func SetLoggerProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	if p == nil {
		p = newSlogProvider()
	}
	currentProvider = p
}

// slogProvider adapts the default slog logger to the Logger interface.
// The provider applies its own level gate on top of the slog handler's,
// so SetLevel works regardless of how the handler was configured.
type slogProvider struct {
	mu  sync.RWMutex
	min Level
}

func newSlogProvider() *slogProvider {
	return &slogProvider{min: LevelDebug}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *slogProvider) GetLogger() Logger {
	return &slogAdapter{logger: slog.Default(), provider: p}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *slogProvider) GetLoggerWithName(name string) Logger {
	return &slogAdapter{logger: slog.Default().With(ComponentKey, name), provider: p}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *slogProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.min = level
}

func (p *slogProvider) enabled(level Level) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return level >= p.min
}

// slogAdapter implements Logger on top of *slog.Logger.
type slogAdapter struct {
	logger   *slog.Logger
	provider *slogProvider
}

// Debug implements Logger.Debug.
func (s *slogAdapter) Debug(msg string, fields ...any) {
	if s.provider.enabled(LevelDebug) {
		s.logger.Debug(msg, fields...)
	}
}

// Info implements Logger.Info.
func (s *slogAdapter) Info(msg string, fields ...any) {
	if s.provider.enabled(LevelInfo) {
		s.logger.Info(msg, fields...)
	}
}

// Warn implements Logger.Warn.
func (s *slogAdapter) Warn(msg string, fields ...any) {
	if s.provider.enabled(LevelWarn) {
		s.logger.Warn(msg, fields...)
	}
}

// Error implements Logger.Error.
// If the first field is a bare error value, it is converted to ErrAttr so
// the ErrFmtHandler can extract its stacktrace.
func (s *slogAdapter) Error(msg string, fields ...any) {
	if !s.provider.enabled(LevelError) {
		return
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			args := make([]any, 0, len(fields))
			args = append(args, ErrAttr(err))
			args = append(args, fields[1:]...)
			s.logger.Error(msg, args...)
			return
		}
	}
	s.logger.Error(msg, fields...)
}

// With implements Logger.With.
func (s *slogAdapter) With(fields ...any) Logger {
	return &slogAdapter{logger: s.logger.With(fields...), provider: s.provider}
}

// Enabled implements Logger.Enabled.
func (s *slogAdapter) Enabled(ctx context.Context, level Level) bool {
	return s.provider.enabled(level) && s.logger.Enabled(ctx, slog.Level(level))
}
