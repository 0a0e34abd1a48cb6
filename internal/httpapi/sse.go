package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// handleJobStream pushes the job list as server-sent events. A "jobs" event
// goes out on connect and whenever the list changes; otherwise a comment
// line keeps the connection alive. The stream ends when the client leaves
// or the server shuts down.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	stream := jobStream{w: w, flusher: flusher}
	if err := stream.push(s.store.List()); err != nil {
		return
	}

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case <-ticker.C:
			if err := stream.push(s.store.List()); err != nil {
				return
			}
		}
	}
}

type jobStream struct {
	w       io.Writer
	flusher http.Flusher
	last    []byte
}

// push sends v as a "jobs" event if it differs from the previous one.
func (js *jobStream) push(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if js.last != nil && bytes.Equal(payload, js.last) {
		_, err = io.WriteString(js.w, ": keep-alive\n\n")
	} else {
		js.last = payload
		_, err = fmt.Fprintf(js.w, "event: jobs\ndata: %s\n\n", payload)
	}
	if err != nil {
		return err
	}
	js.flusher.Flush()
	return nil
}
