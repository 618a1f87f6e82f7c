// Package session tracks per-download progress. A session is created for
// every download attempt and is updated by the streamer as bytes reach the
// client; pollers read consistent snapshots of it.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionClosed is returned when a completed or failed session is asked
// to stream again.
var ErrSessionClosed = errors.New("session already finished")

// Observer is called with a snapshot after every state change. It runs on
// the goroutine that made the change and must not block.
type Observer func(DownloadSession)

type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*DownloadSession

	obsMu     sync.RWMutex
	observers []Observer

	now   func() time.Time
	newID func() string
}

func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[string]*DownloadSession),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Observe registers fn for all future updates.
func (t *Tracker) Observe(fn Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, fn)
}

// CreateSession starts a Pending session for fileID. It always succeeds.
func (t *Tracker) CreateSession(fileID string, fileSize int64) string {
	t.mu.Lock()
	id := t.newID()
	for t.sessions[id] != nil {
		id = t.newID()
	}
	s := &DownloadSession{
		ID:        id,
		FileID:    fileID,
		Status:    StatusPending,
		FileSize:  fileSize,
		CreatedAt: t.now(),
	}
	t.sessions[id] = s
	snap := *s
	t.mu.Unlock()

	t.notify(snap)
	return id
}

// BeginStreaming moves a Pending or Downloading session to Downloading and
// restamps StartedAt.
func (t *Tracker) BeginStreaming(id string) error {
	return t.update(id, func(s *DownloadSession) error {
		if s.Status.Terminal() {
			return fmt.Errorf("%w: %s is %s", ErrSessionClosed, id, s.Status)
		}
		s.Status = StatusDownloading
		s.StartedAt = t.now()
		return nil
	})
}

// Claim hands a Pending session of fileID to exactly one stream by moving it
// to Downloading. A session of another file is reported as unknown.
func (t *Tracker) Claim(id, fileID string) (DownloadSession, error) {
	var claimed DownloadSession
	err := t.update(id, func(s *DownloadSession) error {
		switch {
		case s.FileID != fileID:
			return fmt.Errorf("%w: %s", ErrUnknownSession, id)
		case s.Status.Terminal():
			return fmt.Errorf("%w: %s is %s", ErrSessionClosed, id, s.Status)
		case s.Status != StatusPending:
			return fmt.Errorf("%w: %s", ErrSessionInUse, id)
		}
		s.Status = StatusDownloading
		s.StartedAt = t.now()
		claimed = *s
		return nil
	})
	return claimed, err
}

// AddBytes records n more bytes delivered. BytesSent never exceeds FileSize.
func (t *Tracker) AddBytes(id string, n int64) error {
	return t.update(id, func(s *DownloadSession) error {
		if s.Status.Terminal() {
			return fmt.Errorf("%w: %s is %s", ErrSessionClosed, id, s.Status)
		}
		if n <= 0 {
			return nil
		}
		s.BytesSent += n
		if s.BytesSent > s.FileSize {
			s.BytesSent = s.FileSize
		}
		s.ProgressPercent = Percent(s.BytesSent, s.FileSize)
		return nil
	})
}

// Complete marks the session Completed. Completing twice is a no-op;
// completing a failed session is an error.
func (t *Tracker) Complete(id string) error {
	return t.update(id, func(s *DownloadSession) error {
		switch s.Status {
		case StatusCompleted:
			return errUnchanged
		case StatusFailed:
			return fmt.Errorf("%w: %s is %s", ErrSessionClosed, id, s.Status)
		}
		s.Status = StatusCompleted
		s.CompletedAt = t.now()
		if s.FileSize == 0 {
			s.ProgressPercent = 100
		}
		return nil
	})
}

// Fail marks the session Failed with reason. Only the first terminal
// transition counts; failing a finished session changes nothing.
func (t *Tracker) Fail(id string, reason error) error {
	return t.update(id, func(s *DownloadSession) error {
		if s.Status.Terminal() {
			return errUnchanged
		}
		s.Status = StatusFailed
		s.CompletedAt = t.now()
		if reason != nil {
			s.FailureReason = reason.Error()
		}
		return nil
	})
}

// Query returns a snapshot of the session.
func (t *Tracker) Query(id string) (DownloadSession, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	if !ok {
		return DownloadSession{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return *s, nil
}

// Len reports how many sessions are held.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Counts reports sessions per status.
func (t *Tracker) Counts() map[Status]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[Status]int, 4)
	for _, s := range t.sessions {
		out[s.Status]++
	}
	return out
}

// EvictFinished drops completed and failed sessions that finished more than
// retention ago and returns how many were dropped.
func (t *Tracker) EvictFinished(retention time.Duration) int {
	cutoff := t.now().Add(-retention)

	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for id, s := range t.sessions {
		if s.Status.Terminal() && s.CompletedAt.Before(cutoff) {
			delete(t.sessions, id)
			evicted++
		}
	}
	return evicted
}

// errUnchanged short-circuits update without an error or a notification.
var errUnchanged = errors.New("unchanged")

func (t *Tracker) update(id string, fn func(s *DownloadSession) error) error {
	t.mu.Lock()
	s, ok := t.sessions[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	if err := fn(s); err != nil {
		t.mu.Unlock()
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	snap := *s
	t.mu.Unlock()

	t.notify(snap)
	return nil
}

func (t *Tracker) notify(snap DownloadSession) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, fn := range t.observers {
		fn(snap)
	}
}
