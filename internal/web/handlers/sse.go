package handlers

import (
	"net/http"

	"github.com/kozaktomas/photo-cleaner/internal/engine"
)

// setupSSEConnection sets the event stream headers. On failure it writes an
// error response and returns false.
func setupSSEConnection(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

// streamEngineEvents sends the current status and then every engine event
// until a run ends, the client disconnects, or the listener is closed. When no
// run is in flight only the status event is sent.
func streamEngineEvents(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	eventCh := eng.Subscribe()
	defer eng.Unsubscribe(eventCh)

	sendSSEEvent(w, flusher, "status", statusOf(eng))
	if eng.State() != engine.StateRunning {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, string(event.Type), event)
			if event.Terminal() {
				return
			}
		}
	}
}
