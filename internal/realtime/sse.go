package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// keepAliveInterval paces SSE comment frames so proxies keep the connection
// open through quiet periods.
const keepAliveInterval = 25 * time.Second

// SSEHandler bridges a subscriber's live HTTP connection to the Broker.
// GET /notifications/stream with the x-user-id header; events stream as
// standard server-sent events.
type SSEHandler struct {
	broker Broker
}

// NewSSEHandler returns an SSE endpoint over broker.
func NewSSEHandler(broker Broker) *SSEHandler {
	return &SSEHandler{broker: broker}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		http.Error(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel, err := h.broker.Subscribe(r.Context(), userID)
	if err != nil {
		log.Printf("[realtime] Subscribe for user %s: %v", userID, err)
		http.Error(w, "subscribe failed", http.StatusInternalServerError)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSE(w, "connected", map[string]string{
		"message":   "通知服務已連接",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			writeSSE(w, ev.Name, ev.Payload)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[realtime] Marshal SSE payload for %q: %v", event, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
