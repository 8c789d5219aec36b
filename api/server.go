// Package api exposes the Doppler simulation engine over HTTP: parameter
// control, session lifecycle, estimate queries, frame streaming and
// spectrogram rendering.
package api

import (
	"log"
	"net/http"

	"github.com/YassienTawfikk/SonoMetric/internal/db"
	"github.com/YassienTawfikk/SonoMetric/internal/doppler"
)

type Server struct {
	engine *doppler.Engine
	db     *db.DB
	logger *log.Logger
}

func NewServer(engine *doppler.Engine, database *db.DB, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		engine: engine,
		db:     database,
		logger: logger,
	}
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("SonoMetric Doppler Server"))
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/start", s.handleStart)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/angle", s.handleAngle)
	mux.HandleFunc("/api/vmax", s.handleVMax)
	mux.HandleFunc("/api/estimate", s.handleEstimate)
	mux.HandleFunc("/api/estimates", s.handleEstimates)
	mux.HandleFunc("/api/frames", s.handleFramesSSE)
	mux.HandleFunc("/api/frames/ws", s.handleFramesWS)
	mux.HandleFunc("/api/spectrogram.png", s.handleSpectrogramPNG)
	mux.HandleFunc("/api/spectrogram", s.handleSpectrogramChart)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}
