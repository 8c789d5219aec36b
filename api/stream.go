package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YassienTawfikk/SonoMetric/internal/httputil"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 200 * time.Millisecond

// handleFramesSSE streams spectrogram frames as server-sent events.
// Slow consumers see gaps rather than stalling the engine: the engine
// drops the oldest queued frame when a subscriber falls behind.
func (s *Server) handleFramesSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalServerError(w, "streaming unsupported")
		return
	}

	id, frames := s.engine.Subscribe()
	defer s.engine.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				s.logger.Printf("failed to marshal frame %d: %v", frame.Seq, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleFramesWS streams spectrogram frames over a websocket as JSON
// text messages. The read loop exists only to observe the close
// handshake.
func (s *Server) handleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	id, frames := s.engine.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.engine.Unsubscribe(id)
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				s.logger.Printf("failed to marshal frame %d: %v", frame.Seq, err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
