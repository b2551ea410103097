// Package obslog provides the leveled structured logger used to report
// structural events inside the sketch growth controllers and eviction paths
// (filter growth, eviction-chain spill, run reorganization). It is adapted
// from this codebase's original cache logger, trimmed for library use: a
// library must not spin up a background goroutine or own a log file just by
// being imported, so entries are written synchronously to an injected
// io.Writer instead of queued on a channel.
package obslog

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level represents the severity of a log entry.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Entry is a single structured log line.
type Entry struct {
	Timestamp time.Time              `json:"@timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component"`
	Action    string                 `json:"action"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger is a minimal synchronous structured logger. The zero value is not
// usable; construct with New or Discard.
type Logger struct {
	level  Level
	writer io.Writer
	mu     sync.Mutex
}

// New returns a Logger that writes entries at or above level as JSON lines
// to w.
func New(level Level, w io.Writer) *Logger {
	return &Logger{level: level, writer: w}
}

// Discard returns a Logger that drops every entry below Level.
// Sketch constructors default to this so importing the module never writes
// to stdout unless the caller opts in.
func Discard() *Logger {
	return New(Error+1, io.Discard)
}

// Default returns a Logger at Info level writing to stderr, matching the
// console-writer default the original cache logger used.
func Default() *Logger {
	return New(Info, os.Stderr)
}

// NewTraceID returns a fresh correlation identifier for a single sketch
// operation (e.g. one scalable-filter growth event), the same uuid-backed
// scheme the original cache logger used for request correlation IDs.
func NewTraceID() string {
	return uuid.New().String()
}

func (l *Logger) log(level Level, component, action, message string, fields map[string]interface{}) {
	if l == nil || level < l.level {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Component: component,
		Action:    action,
		Message:   message,
		TraceID:   NewTraceID(),
		Fields:    fields,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(data)
}

// Debugf logs a structural debug event (e.g. "spilled into extraItems").
func (l *Logger) Debugf(component, action, message string, fields map[string]interface{}) {
	l.log(Debug, component, action, message, fields)
}

// Infof logs a structural info event (e.g. "appended filter 2 of stack").
func (l *Logger) Infof(component, action, message string, fields map[string]interface{}) {
	l.log(Info, component, action, message, fields)
}

// Warnf logs a structural warning (e.g. "eviction chain exhausted maxKicks").
func (l *Logger) Warnf(component, action, message string, fields map[string]interface{}) {
	l.log(Warn, component, action, message, fields)
}
