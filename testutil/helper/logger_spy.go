package helper

import (
	"sync"

	"github.com/lendwise/circulation-go/circulation"
)

// LoggerSpy is a circulation.Logger implementation that captures log calls for testing.
type LoggerSpy struct {
	debugRecords []LogRecord
	infoRecords  []LogRecord
	warnRecords  []LogRecord
	errorRecords []LogRecord
	mu           sync.Mutex
}

// LogRecord represents a recorded log call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
}

// NewLoggerSpy creates a new LoggerSpy instance.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

// Debug implements the Logger interface for testing.
func (l *LoggerSpy) Debug(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugRecords = append(l.debugRecords, LogRecord{Level: "debug", Message: msg, Args: args})
}

// Info implements the Logger interface for testing.
func (l *LoggerSpy) Info(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoRecords = append(l.infoRecords, LogRecord{Level: "info", Message: msg, Args: args})
}

// Warn implements the Logger interface for testing.
func (l *LoggerSpy) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnRecords = append(l.warnRecords, LogRecord{Level: "warn", Message: msg, Args: args})
}

// Error implements the Logger interface for testing.
func (l *LoggerSpy) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorRecords = append(l.errorRecords, LogRecord{Level: "error", Message: msg, Args: args})
}

// Reset clears all recorded log calls.
func (l *LoggerSpy) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugRecords = l.debugRecords[:0]
	l.infoRecords = l.infoRecords[:0]
	l.warnRecords = l.warnRecords[:0]
	l.errorRecords = l.errorRecords[:0]
}

// GetInfoRecords returns a copy of all info log records.
func (l *LoggerSpy) GetInfoRecords() []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]LogRecord(nil), l.infoRecords...)
}

// GetWarnRecords returns a copy of all warn log records.
func (l *LoggerSpy) GetWarnRecords() []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]LogRecord(nil), l.warnRecords...)
}

// GetErrorRecords returns a copy of all error log records.
func (l *LoggerSpy) GetErrorRecords() []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]LogRecord(nil), l.errorRecords...)
}

// GetTotalRecordCount returns the total number of log records across all levels.
func (l *LoggerSpy) GetTotalRecordCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.debugRecords) + len(l.infoRecords) + len(l.warnRecords) + len(l.errorRecords)
}

// HasInfoLog checks if an info log with the specified message exists.
func (l *LoggerSpy) HasInfoLog(message string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return hasMessage(l.infoRecords, message)
}

// HasWarnLog checks if a warn log with the specified message exists.
func (l *LoggerSpy) HasWarnLog(message string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return hasMessage(l.warnRecords, message)
}

// HasErrorLog checks if an error log with the specified message exists.
func (l *LoggerSpy) HasErrorLog(message string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return hasMessage(l.errorRecords, message)
}

func hasMessage(records []LogRecord, message string) bool {
	for _, record := range records {
		if record.Message == message {
			return true
		}
	}

	return false
}

// Compile-time check to ensure LoggerSpy implements the Logger interface.
var _ circulation.Logger = (*LoggerSpy)(nil)
