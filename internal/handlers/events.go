package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const eventsHeartbeatInterval = 25 * time.Second

// Events streams change notifications to the client as server-sent events.
// The subscription lives until the client disconnects.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeErrorMessage(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel, err := h.notifier.Subscribe(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(eventsHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Error("failed to encode change event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
