package testhelpers

import (
	"sync"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
)

// NewTestLogger returns a logger that discards output.
func NewTestLogger() logger.Logger {
	return logger.NewNop()
}

// LogEntry is one message captured by RecordingLogger.
type LogEntry struct {
	Level   string
	Message string
	Fields  []logger.Field
}

// RecordingLogger keeps every entry in memory. Child loggers share the
// parent's entries and prepend their fields.
type RecordingLogger struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	fields  []logger.Field
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (l *RecordingLogger) record(level, msg string, fields []logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := append(append([]logger.Field{}, l.fields...), fields...)
	*l.entries = append(*l.entries, LogEntry{Level: level, Message: msg, Fields: all})
}

func (l *RecordingLogger) Debug(msg string, fields ...logger.Field) { l.record("debug", msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...logger.Field)  { l.record("info", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...logger.Field)  { l.record("warn", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...logger.Field) { l.record("error", msg, fields) }
func (l *RecordingLogger) Fatal(msg string, fields ...logger.Field) { l.record("fatal", msg, fields) }
func (l *RecordingLogger) Sync() error                              { return nil }

// With returns a child logger.
func (l *RecordingLogger) With(fields ...logger.Field) logger.Logger {
	return &RecordingLogger{
		mu:      l.mu,
		entries: l.entries,
		fields:  append(append([]logger.Field{}, l.fields...), fields...),
	}
}

// Entries returns a copy of the captured entries.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), *l.entries...)
}

// Counter counts Inc calls.
type Counter struct {
	N int
}

// Inc implements scoring.Counter.
func (c *Counter) Inc() { c.N++ }
