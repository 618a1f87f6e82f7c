package session

import "time"

// Status is the lifecycle state of a download attempt.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DownloadSession tracks a single download attempt. Values returned by the
// Tracker are snapshots; mutating them has no effect on the tracker.
type DownloadSession struct {
	ID              string
	FileID          string
	Status          Status
	FileSize        int64
	BytesSent       int64
	ProgressPercent float64
	CreatedAt       time.Time
	StartedAt       time.Time
	CompletedAt     time.Time
	FailureReason   string
}

// Percent computes min(100, sent/size*100). A zero-byte file reads as 0%
// until it completes.
func Percent(sent, size int64) float64 {
	if size <= 0 {
		return 0
	}
	p := float64(sent) / float64(size) * 100
	if p > 100 {
		return 100
	}
	return p
}
