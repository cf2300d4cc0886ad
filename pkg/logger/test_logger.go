package logger

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log entries so tests can assert on them.
type TestLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one captured log call.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a capturing logger for tests.
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

func (l *TestLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Fields: copied})
}

// Entries returns a snapshot of everything logged so far.
func (l *TestLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// HasEntry reports whether a message at the given level containing
// substr was logged.
func (l *TestLogger) HasEntry(level, substr string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Reset discards all captured entries.
func (l *TestLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

func (l *TestLogger) Debug(msg string) { l.record("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.record("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.record("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.record("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.record("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.record("DEBUG", msg, fields)
}
func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.record("INFO", msg, fields)
}
func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.record("WARN", msg, fields)
}
func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.record("ERROR", msg, fields)
}
func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.record("FATAL", msg, fields)
}

// WithField returns a logger that merges the field into every entry.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return &testLoggerContext{parent: l, fields: map[string]interface{}{key: value}}
}

// WithFields returns a logger that merges the fields into every entry.
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &testLoggerContext{parent: l, fields: copied}
}

// WithError attaches the error as a field.
func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }

func (l *TestLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}

// testLoggerContext carries bound fields back to the parent capture.
type testLoggerContext struct {
	parent *TestLogger
	fields map[string]interface{}
}

func (c *testLoggerContext) merged(extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(c.fields)+len(extra))
	for k, v := range c.fields {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (c *testLoggerContext) Debug(msg string) { c.parent.record("DEBUG", msg, c.fields) }
func (c *testLoggerContext) Info(msg string)  { c.parent.record("INFO", msg, c.fields) }
func (c *testLoggerContext) Warn(msg string)  { c.parent.record("WARN", msg, c.fields) }
func (c *testLoggerContext) Error(msg string) { c.parent.record("ERROR", msg, c.fields) }
func (c *testLoggerContext) Fatal(msg string) { c.parent.record("FATAL", msg, c.fields) }

func (c *testLoggerContext) DebugWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("DEBUG", msg, c.merged(fields))
}
func (c *testLoggerContext) InfoWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("INFO", msg, c.merged(fields))
}
func (c *testLoggerContext) WarnWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("WARN", msg, c.merged(fields))
}
func (c *testLoggerContext) ErrorWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("ERROR", msg, c.merged(fields))
}
func (c *testLoggerContext) FatalWithFields(msg string, fields map[string]interface{}) {
	c.parent.record("FATAL", msg, c.merged(fields))
}

func (c *testLoggerContext) WithField(key string, value interface{}) Logger {
	return &testLoggerContext{parent: c.parent, fields: c.merged(map[string]interface{}{key: value})}
}

func (c *testLoggerContext) WithFields(fields map[string]interface{}) Logger {
	return &testLoggerContext{parent: c.parent, fields: c.merged(fields)}
}

func (c *testLoggerContext) WithError(err error) Logger {
	if err == nil {
		return c
	}
	return c.WithField("error", err.Error())
}

func (c *testLoggerContext) WithContext(ctx context.Context) Logger { return c }

func (c *testLoggerContext) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
