// Package progress pushes session snapshots to websocket watchers so a
// browser does not have to poll the progress endpoint.
package progress

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"burnbin/internal/domain/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1024
	sendBuffer = 64
)

// Event is one pushed update.
type Event struct {
	Type    string                   `json:"type"`
	Payload session.ProgressResponse `json:"payload"`
}

const EventProgress = "progress"

type watcher struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte

	mu     sync.Mutex
	closed bool
	last   session.DownloadSession // latest queued snapshot
	queued bool
}

func newWatcher(sessionID string, conn *websocket.Conn) *watcher {
	return &watcher{
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}
}

// offer queues s unless it is older than what was already queued. A terminal
// snapshot always gets through, evicting the oldest queued event if the
// buffer is full, and closes the watcher.
func (w *watcher) offer(s session.DownloadSession) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || (w.queued && !s.Status.Terminal() && stale(w.last, s)) {
		return
	}
	data, err := encode(s)
	if err != nil {
		return
	}

	if !s.Status.Terminal() {
		select {
		case w.send <- data:
			w.last, w.queued = s, true
		default:
		}
		return
	}

	for {
		select {
		case w.send <- data:
			w.closed = true
			close(w.send)
			return
		default:
		}
		select {
		case <-w.send:
		default:
		}
	}
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.send)
	}
}

// stale reports whether next describes an earlier point of the session than
// prev. Observers may see updates out of order.
func stale(prev, next session.DownloadSession) bool {
	if next.BytesSent != prev.BytesSent {
		return next.BytesSent < prev.BytesSent
	}
	return next.Status == session.StatusPending && prev.Status != session.StatusPending
}

// Hub fans session updates out to the watchers of each session.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*watcher]struct{} // sessionID -> watchers
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[*watcher]struct{})}
}

func (h *Hub) register(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.watchers[w.sessionID]
	if !ok {
		set = make(map[*watcher]struct{})
		h.watchers[w.sessionID] = set
	}
	set[w] = struct{}{}
}

func (h *Hub) unregister(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.watchers[w.sessionID]; ok {
		if _, ok := set[w]; ok {
			delete(set, w)
			w.close()
		}
		if len(set) == 0 {
			delete(h.watchers, w.sessionID)
		}
	}
}

// Watchers reports how many connections watch sessionID.
func (h *Hub) Watchers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[sessionID])
}

// Publish is a session.Observer. Slow watchers miss intermediate events;
// the next event carries the full state anyway. The final event is always
// delivered, then watchers of a finished session are released.
func (h *Hub) Publish(s session.DownloadSession) {
	h.mu.RLock()
	targets := make([]*watcher, 0, len(h.watchers[s.ID]))
	for w := range h.watchers[s.ID] {
		targets = append(targets, w)
	}
	h.mu.RUnlock()

	for _, w := range targets {
		w.offer(s)
	}
	if s.Status.Terminal() {
		for _, w := range targets {
			h.unregister(w)
		}
	}
}

func encode(s session.DownloadSession) ([]byte, error) {
	payload := session.ToProgressResponse(s)
	payload.SessionID = s.ID
	return json.Marshal(Event{Type: EventProgress, Payload: payload})
}

// Serve registers conn as a watcher of sessionID, sends the current snapshot
// and blocks until the connection goes away. The watcher is registered before
// the snapshot is read, so no update in between is lost.
func (h *Hub) Serve(conn *websocket.Conn, sessionID string, tracker Querier) {
	w := newWatcher(sessionID, conn)
	h.register(w)

	snap, err := tracker.Query(sessionID)
	switch {
	case err != nil:
		h.unregister(w)
	case snap.Status.Terminal():
		w.offer(snap)
		h.unregister(w)
	default:
		w.offer(snap)
	}

	go h.writePump(w)
	h.readPump(w)
}

func (h *Hub) readPump(w *watcher) {
	defer func() {
		h.unregister(w)
		w.conn.Close()
	}()

	w.conn.SetReadLimit(maxMsgSize)
	_ = w.conn.SetReadDeadline(time.Now().Add(pongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// inbound messages are ignored; reading keeps pongs and close frames flowing
	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(w *watcher) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		w.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = w.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished"))
				return
			}
			if err := w.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
