// Package activity keeps the append-only, human-readable record of what the
// share host did during this process run: files shared and removed, uploads
// received, downloads started and finished.
package activity

import (
	"fmt"
	"log"
	"sync"
	"time"
)

const timeLayout = "15:04:05"

// Entry is a single activity line.
type Entry struct {
	At      time.Time `json:"time"`
	Message string    `json:"message"`
}

// String formats the entry as "[HH:MM:SS] message".
func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.At.Format(timeLayout), e.Message)
}

// Sink is what other packages depend on to record activity.
type Sink interface {
	Append(message string)
}

// Log is an in-memory Sink. It is unbounded within a run and is not persisted.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
	echo    bool
}

// New returns a Log that also mirrors every entry to the process logger.
func New() *Log {
	return &Log{now: time.Now, echo: true}
}

// NewQuiet returns a Log that does not write to the process logger.
func NewQuiet() *Log {
	return &Log{now: time.Now}
}

// Append records message with the current wall-clock time. It never fails;
// a panic while echoing to the process log is swallowed.
func (l *Log) Append(message string) {
	if l == nil {
		return
	}
	e := Entry{At: l.now(), Message: message}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	if l.echo {
		func() {
			defer func() { _ = recover() }()
			log.Printf("activity msg=%q", message)
		}()
	}
}

// Entries returns a copy of all entries in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Since returns the entries appended after the first n, so pollers can
// fetch only what they have not seen yet.
func (l *Log) Since(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n >= len(l.entries) {
		return []Entry{}
	}
	out := make([]Entry, len(l.entries)-n)
	copy(out, l.entries[n:])
	return out
}

// Lines returns every entry formatted with String.
func (l *Log) Lines() []string {
	entries := l.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines
}

// Len reports how many entries have been appended.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
