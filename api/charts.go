package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/YassienTawfikk/SonoMetric/internal/doppler/monitor"
	"github.com/YassienTawfikk/SonoMetric/internal/httputil"
)

// handleSpectrogramPNG renders the retained frame history as a PNG
// heatmap.
func (s *Server) handleSpectrogramPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	frames := s.engine.History()
	if len(frames) == 0 {
		httputil.NotFound(w, "no spectrogram frames available")
		return
	}

	var buf bytes.Buffer
	if err := monitor.RenderSpectrogramPNG(&buf, frames); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render spectrogram: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// handleSpectrogramChart renders the retained frame history as an
// interactive ECharts heatmap.
func (s *Server) handleSpectrogramChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	frames := s.engine.History()
	if len(frames) == 0 {
		httputil.NotFound(w, "no spectrogram frames available")
		return
	}

	var buf bytes.Buffer
	if err := monitor.RenderSpectrogramHTML(&buf, frames, s.engine.SessionID()); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render spectrogram chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
