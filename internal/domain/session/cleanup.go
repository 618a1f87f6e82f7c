package session

import (
	"context"
	"log"
	"time"
)

// CleanupConfig controls eviction of finished sessions.
type CleanupConfig struct {
	Retention time.Duration // finished sessions older than this are dropped; 0 disables cleanup
	Interval  time.Duration // how often to sweep
}

// CleanupService periodically evicts finished sessions from a Tracker.
type CleanupService struct {
	tracker *Tracker
}

func NewCleanupService(tracker *Tracker) *CleanupService {
	return &CleanupService{tracker: tracker}
}

// RunOnce performs a single sweep.
func (c *CleanupService) RunOnce(retention time.Duration) int {
	startTime := time.Now()
	evicted := c.tracker.EvictFinished(retention)
	if evicted > 0 {
		log.Printf("session_cleanup evicted=%d remaining=%d took=%v", evicted, c.tracker.Len(), time.Since(startTime))
	}
	return evicted
}

// Schedule starts a background sweep loop. It returns nil when cleanup is
// disabled; otherwise closing the returned channel (or cancelling ctx) stops it.
func (c *CleanupService) Schedule(ctx context.Context, cfg CleanupConfig) chan struct{} {
	if cfg.Retention <= 0 || cfg.Interval <= 0 {
		log.Println("Session cleanup is disabled")
		return nil
	}

	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.RunOnce(cfg.Retention)
			case <-stopCh:
				log.Println("Session cleanup stopped")
				return
			case <-ctx.Done():
				log.Println("Session cleanup stopped (context done)")
				return
			}
		}
	}()

	log.Printf("Session cleanup started: retention=%v interval=%v", cfg.Retention, cfg.Interval)
	return stopCh
}
