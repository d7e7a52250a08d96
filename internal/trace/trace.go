// Package trace implements the harness's append-only diagnostic trace.
//
// Every component reports through one process-wide [Log]. Entries are
// timestamped, ordered by insertion, and mirrored to a charmbracelet
// logger at the matching level so the trace doubles as the structured
// log stream. Subscribers (the TUI) receive entries as they are appended.
package trace

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Severity classifies a trace entry.
type Severity string

const (
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Entry is one timestamped line of the diagnostic trace.
type Entry struct {
	At       time.Time `json:"at"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Log is the process-wide trace sink. Appends are ordered and entries are
// never removed or rewritten.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	subs    []chan Entry
	logger  *log.Logger
	now     func() time.Time
}

// New creates a trace log mirroring entries to the given logger. A nil
// logger disables mirroring.
func New(logger *log.Logger) *Log {
	return &Log{logger: logger, now: time.Now}
}

// Append records a formatted entry at the given severity.
func (l *Log) Append(sev Severity, format string, args ...any) Entry {
	entry := Entry{
		At:       l.now(),
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	subs := make([]chan Entry, len(l.subs))
	copy(subs, l.subs)
	l.mu.Unlock()

	l.mirror(entry)

	for _, sub := range subs {
		select {
		case sub <- entry:
		default: // slow subscriber, drop rather than block the trace
		}
	}

	return entry
}

func (l *Log) Debugf(format string, args ...any) { l.Append(SeverityDebug, format, args...) }
func (l *Log) Infof(format string, args ...any)  { l.Append(SeverityInfo, format, args...) }
func (l *Log) Warnf(format string, args ...any)  { l.Append(SeverityWarn, format, args...) }
func (l *Log) Errorf(format string, args ...any) { l.Append(SeverityError, format, args...) }

// Entries returns a snapshot of the trace in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Subscribe returns a channel receiving every entry appended after the
// call. Entries are dropped for subscribers that fall behind.
func (l *Log) Subscribe() <-chan Entry {
	ch := make(chan Entry, 64)
	l.mu.Lock()
	l.subs = append(l.subs, ch)
	l.mu.Unlock()
	return ch
}

func (l *Log) mirror(entry Entry) {
	if l.logger == nil {
		return
	}
	switch entry.Severity {
	case SeverityDebug:
		l.logger.Debug(entry.Message)
	case SeverityWarn:
		l.logger.Warn(entry.Message)
	case SeverityError:
		l.logger.Error(entry.Message)
	default:
		l.logger.Info(entry.Message)
	}
}
