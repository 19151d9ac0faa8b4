package preview

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// reloadHub fans one rebuild notification out to every connected page.
type reloadHub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

func newReloadHub() *reloadHub {
	return &reloadHub{clients: make(map[chan []byte]struct{})}
}

func (h *reloadHub) add() chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan []byte, 8)
	h.clients[ch] = struct{}{}
	return ch
}

func (h *reloadHub) remove(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
	close(ch)
}

// broadcast delivers data to every client, skipping any whose buffer is
// full. Sends happen under the lock so remove cannot close a channel
// mid-send.
func (h *reloadHub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
		}
	}
}

func (h *reloadHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// handleEvents streams rebuild notifications as server-sent events. The
// reload message carries no event type so the page's onmessage handler
// fires on it; the greeting and the pings do not.
func (h *reloadHub) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := h.add()
	defer h.remove(ch)

	fmt.Fprint(w, "event: ready\ndata: ok\n\n")
	flusher.Flush()

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
