package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// TestLogger is an in-memory Logger for tests. Records are rendered as JSON
// lines into a shared buffer, so assertions can inspect either the raw output
// or the parsed entries. All methods are safe for concurrent use; loggers
// derived through With share the buffer and lock of their parent.
type TestLogger struct {
	mu     *sync.Mutex
	buffer *bytes.Buffer
	level  Level
	fields []any
}

// NewTestLogger returns a TestLogger capturing records at or above level,
// together with the buffer holding the rendered output.
//
// Example:
//
//	logger, buffer := log.NewTestLogger(log.LevelDebug)
//	logger.Info("adapt finished", log.SamplesKey, 500)
//	if !strings.Contains(buffer.String(), "adapt finished") {
//	    t.Error("expected adapt log record")
//	}
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		mu:     &sync.Mutex{},
		buffer: buffer,
		level:  level,
	}, buffer
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) { t.write(LevelDebug, msg, fields) }

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) { t.write(LevelInfo, msg, fields) }

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) { t.write(LevelWarn, msg, fields) }

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) { t.write(LevelError, msg, fields) }

// With implements Logger.With. The derived logger writes into the same
// buffer with the given fields pre-populated.
func (t *TestLogger) With(fields ...any) Logger {
	t.mu.Lock()
	defer t.mu.Unlock()

	combined := make([]any, 0, len(t.fields)+len(fields))
	combined = append(combined, t.fields...)
	combined = append(combined, fields...)
	return &TestLogger{mu: t.mu, buffer: t.buffer, level: t.level, fields: combined}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(ctx context.Context, level Level) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return level >= t.level
}

// SetLevel changes the minimum captured level.
func (t *TestLogger) SetLevel(level Level) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.level = level
}

// write renders one record as a JSON line. Pre-populated fields are applied
// first so call-site fields can override them.
func (t *TestLogger) write(level Level, msg string, fields []any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if level < t.level {
		return
	}

	entry := map[string]interface{}{
		"level":   level.String(),
		"message": msg,
	}
	collectFields(entry, t.fields)
	collectFields(entry, fields)

	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"message":%q,"marshal_error":%q}`,
			level.String(), msg, err.Error()))
	}
	t.buffer.Write(line)
	t.buffer.WriteByte('\n')
}

// collectFields folds key-value pairs into entry. A bare error value in key
// position is stored under ErrAttrKey, mirroring how the slog adapter treats
// errors passed to Logger.Error. Error values are rendered as their message
// so the entry stays JSON-serializable.
func collectFields(entry map[string]interface{}, fields []any) {
	for i := 0; i < len(fields); {
		if err, ok := fields[i].(error); ok {
			entry[ErrAttrKey] = err.Error()
			i++
			continue
		}
		if i+1 >= len(fields) {
			return
		}
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			entry[key] = err.Error()
		} else {
			entry[key] = fields[i+1]
		}
		i += 2
	}
}

// GetBuffer returns the buffer holding the rendered log output.
func (t *TestLogger) GetBuffer() *bytes.Buffer {
	return t.buffer
}

// GetLogEntries parses the captured output back into structured entries.
// Values carry their JSON types, so numeric fields come back as float64.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dec := json.NewDecoder(bytes.NewReader(t.buffer.Bytes()))
	var entries []map[string]interface{}
	for dec.More() {
		var entry map[string]interface{}
		if err := dec.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured record contains the given
// message text.
func (t *TestLogger) ContainsMessage(message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField reports whether any captured record has the given field with
// the given value. The comparison runs against the parsed JSON entry, so
// numeric expectations must be float64.
//
// Example:
//
//	if !testLogger.ContainsField(log.OperationKey, log.OperationAdapt) {
//	    t.Error("expected adapt operation in logs")
//	}
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if got, ok := entry[key]; ok && got == value {
			return true
		}
	}
	return false
}

// Clear discards all captured output.
func (t *TestLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buffer.Reset()
}

// TestLoggerProvider implements LoggerProvider on top of a single TestLogger,
// so components resolving loggers through the provider write into one buffer.
type TestLoggerProvider struct {
	logger *TestLogger
	buffer *bytes.Buffer
}

// NewTestLoggerProvider returns a provider whose loggers capture into the
// returned buffer.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buffer := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger, buffer: buffer}, buffer
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.SetLevel(level)
}

// GetBuffer returns the buffer holding the rendered log output.
func (p *TestLoggerProvider) GetBuffer() *bytes.Buffer {
	return p.buffer
}
