// Package transfer streams registered files to download clients while
// keeping the owning session's progress in step with the bytes actually
// handed to the transport.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"burnbin/internal/domain/activity"
	"burnbin/internal/domain/registry"
	"burnbin/internal/domain/session"
	"burnbin/internal/pkg/sizefmt"
)

// ChunkSize is both the read size and the progress reporting granularity.
const ChunkSize = 128 * 1024

// Counter is the part of the registry the streamer touches.
type Counter interface {
	IncrementDownloadCount(id string)
}

// Progress is the part of the session tracker the streamer drives.
type Progress interface {
	BeginStreaming(id string) error
	AddBytes(id string, n int64) error
	Complete(id string) error
	Fail(id string, reason error) error
}

// Streamer holds no per-download state; one instance serves all sessions.
type Streamer struct {
	counter      Counter
	progress     Progress
	activity     activity.Sink
	metrics      *Metrics
	writeTimeout time.Duration
	pool         sync.Pool
}

// Option customizes a Streamer.
type Option func(*Streamer)

// WithWriteTimeout fails a session when a single chunk cannot be written
// within d. Zero disables the deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Streamer) { s.writeTimeout = d }
}

// WithMetrics shares m instead of a private Metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Streamer) { s.metrics = m }
}

func NewStreamer(counter Counter, progress Progress, sink activity.Sink, opts ...Option) *Streamer {
	s := &Streamer{
		counter:  counter,
		progress: progress,
		activity: sink,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, ChunkSize)
				return &b
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

func (s *Streamer) Metrics() *Metrics { return s.metrics }

// Stream writes sess.FileSize bytes of entry to w in ChunkSize pieces. Each
// chunk is reported to the session after it has been written and flushed.
// On success the session is completed; on any failure it is failed exactly
// once and the error is returned so the caller can abort the response.
//
// The entry's download counter goes up once per call, when streaming begins.
func (s *Streamer) Stream(ctx context.Context, w io.Writer, entry registry.FileEntry, sess session.DownloadSession) (int64, error) {
	if err := s.progress.BeginStreaming(sess.ID); err != nil {
		return 0, err
	}
	s.counter.IncrementDownloadCount(entry.ID)
	s.metrics.Started.Inc(1)
	s.metrics.Active.Inc(1)
	defer s.metrics.Active.Dec(1)

	s.appendf("Download started: %s (Session: %s)", entry.DisplayName, shortID(sess.ID))
	start := time.Now()

	sent, err := s.copy(ctx, w, entry.Path, sess)
	if err != nil {
		s.fail(entry, sess, sent, err)
		return sent, err
	}
	if err := s.progress.Complete(sess.ID); err != nil {
		s.fail(entry, sess, sent, err)
		return sent, err
	}

	s.metrics.Completed.Inc(1)
	s.appendf("Download completed: %s (%s in %.1fs)", entry.DisplayName, sizefmt.Label(sent), time.Since(start).Seconds())
	return sent, nil
}

func (s *Streamer) copy(ctx context.Context, w io.Writer, path string, sess session.DownloadSession) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", registry.ErrIO, err)
	}
	defer f.Close()

	bufp := s.pool.Get().(*[]byte)
	defer s.pool.Put(bufp)
	buf := *bufp

	r := io.LimitReader(f, sess.FileSize)
	var sent int64
	for {
		if err := ctx.Err(); err != nil {
			return sent, fmt.Errorf("%w: %v", ErrClientGone, err)
		}

		n, rerr := io.ReadFull(r, buf)
		if n > 0 {
			if err := s.write(w, buf[:n]); err != nil {
				return sent, fmt.Errorf("%w: %v", ErrClientGone, err)
			}
			sent += int64(n)
			s.metrics.BytesSent.Mark(int64(n))
			if err := s.progress.AddBytes(sess.ID, int64(n)); err != nil {
				return sent, err
			}
		}

		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			break
		}
		if rerr != nil {
			return sent, fmt.Errorf("%w: %v", registry.ErrIO, rerr)
		}
	}

	if sent < sess.FileSize {
		return sent, fmt.Errorf("%w: sent %d of %d bytes", ErrShortFile, sent, sess.FileSize)
	}
	return sent, nil
}

func (s *Streamer) write(w io.Writer, p []byte) error {
	rw, isHTTP := w.(http.ResponseWriter)
	if isHTTP && s.writeTimeout > 0 {
		// unsupported writers just run without a deadline
		_ = http.NewResponseController(rw).SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := w.Write(p); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (s *Streamer) fail(entry registry.FileEntry, sess session.DownloadSession, sent int64, cause error) {
	s.metrics.Failed.Inc(1)
	if err := s.progress.Fail(sess.ID, cause); err != nil {
		log.Printf("transfer_fail_unrecorded session=%s error=%q", sess.ID, err)
	}
	s.appendf("Download failed: %s after %s (%v)", entry.DisplayName, sizefmt.Label(sent), cause)
}

func (s *Streamer) appendf(format string, args ...any) {
	if s.activity != nil {
		s.activity.Append(fmt.Sprintf(format, args...))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
