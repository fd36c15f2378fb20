package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// liveReloadScript is served at /livereload.js and injected into HTML pages.
const liveReloadScript = `(function() {
  var source = new EventSource('/livereload');
  source.onmessage = function() { location.reload(); };
  source.onerror = function() {
    source.close();
    setTimeout(function() { location.reload(); }, 2000);
  };
})();
`

// LiveReloadHub manages SSE clients for rebuild broadcasts.
type LiveReloadHub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]chan string
	recorder metrics.Recorder
	closed   bool
}

// NewLiveReloadHub creates a hub reporting client counts to recorder.
func NewLiveReloadHub(recorder metrics.Recorder) *LiveReloadHub {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &LiveReloadHub{clients: map[int]chan string{}, recorder: recorder}
}

// Broadcast sends stamp to every connected client. Slow clients are skipped
// rather than blocking the rebuild path.
func (h *LiveReloadHub) Broadcast(stamp string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- stamp:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *LiveReloadHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects new connections.
func (h *LiveReloadHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
	h.recorder.SetLiveReloadClients(0)
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.mu.Unlock()
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	id := h.nextID
	h.nextID++
	ch := make(chan string, 8)
	h.clients[id] = ch
	h.recorder.SetLiveReloadClients(len(h.clients))
	h.mu.Unlock()

	defer h.removeClient(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case stamp, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", stamp)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Close only ever closes channels it removes from the map under the same
	// lock, so a channel still present here is safe to close.
	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
	}
	h.recorder.SetLiveReloadClients(len(h.clients))
}
