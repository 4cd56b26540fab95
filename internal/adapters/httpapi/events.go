package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"floorline/internal/logging"
)

type takeoverEventPayload struct {
	SessionID     string    `json:"session_id"`
	NewInstanceID string    `json:"new_instance_id"`
	At            time.Time `json:"at"`
}

// handleSessionEvents streams takeover notices for one session as
// server-sent events. The stream is advisory: a client that misses it
// still discovers the loss of ownership on its next heartbeat.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sessionID := r.PathValue("id")
	notices, cancel := s.hub.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Periodic comments keep intermediaries from timing the stream out.
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case n := <-notices:
			payload, err := json.Marshal(takeoverEventPayload{
				SessionID:     n.SessionID,
				NewInstanceID: n.NewInstanceID,
				At:            n.At,
			})
			if err != nil {
				logging.Logger.Error("takeover event encoding failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: takeover\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
