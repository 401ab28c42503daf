package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// keepAliveInterval is how often an idle stream sends a comment line.
const keepAliveInterval = 15 * time.Second

// Stream handles Server-Sent Events for following the live scoreboard.
// GET /api/match/stream
//
// The current view is sent first when a match is live; every later view,
// cue and rack frame follows as an event named after the frame type.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	// Flush function for streaming
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "NO_STREAMING")
		return
	}
	// Streams outlive the server's write timeout.
	http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	frames, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	if s := h.current(); s != nil {
		view := s.Response().View
		writeSSEEvent(w, FrameView, Frame{Type: FrameView, View: &view})
	} else {
		writeSSEEvent(w, "idle", nil)
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case f, ok := <-frames:
			if !ok {
				return
			}
			writeSSEEvent(w, f.Type, f)
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data interface{}) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprintf(w, "\n")
}
