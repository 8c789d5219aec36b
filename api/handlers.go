package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/YassienTawfikk/SonoMetric/internal/config"
	"github.com/YassienTawfikk/SonoMetric/internal/doppler"
	"github.com/YassienTawfikk/SonoMetric/internal/httputil"
	"github.com/YassienTawfikk/SonoMetric/internal/units"
)

const maxRequestBody = 1 << 20 // 1MB

// handleParams returns the active parameter set on GET and reconfigures
// the engine on POST. Reconfiguration accepts a partial parameter
// document; unset fields keep their current value. The engine must be
// stopped for a full reconfigure.
func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.engine.Params())
	case http.MethodPost:
		s.updateParams(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) updateParams(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		httputil.BadRequest(w, "failed to read request body")
		return
	}

	tuning, err := config.ParseTuningConfig(body)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid parameter document: %v", err))
		return
	}

	params, err := tuning.Apply(s.engine.Params())
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("failed to apply parameters: %v", err))
		return
	}

	if err := s.engine.Configure(params); err != nil {
		writeEngineError(w, err)
		return
	}

	s.logger.Printf("parameters updated: angle=%g vmax=%g window=%d",
		params.AngleDeg, params.VMax, params.WindowSize)
	httputil.WriteJSONOK(w, s.engine.Params())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	if err := s.engine.Start(); err != nil {
		writeEngineError(w, err)
		return
	}

	session := s.engine.SessionID()
	if s.db != nil {
		paramsJSON, err := json.Marshal(s.engine.Params())
		if err == nil {
			if err := s.db.RecordSession(session, string(paramsJSON)); err != nil {
				s.logger.Printf("failed to record session %s: %v", session, err)
			}
		}
	}

	s.logger.Printf("acquisition started: session=%s", session)
	httputil.WriteJSONOK(w, map[string]interface{}{
		"session_id": session,
		"running":    true,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	session := s.engine.SessionID()
	s.engine.Stop()

	s.logger.Printf("acquisition stopped: session=%s", session)
	httputil.WriteJSONOK(w, map[string]interface{}{
		"session_id": session,
		"running":    false,
	})
}

// handleAngle hot-swaps the insonation angle without interrupting a
// running acquisition.
func (s *Server) handleAngle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req struct {
		AngleDeg float64 `json:"angle_deg"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}

	if err := s.engine.SetAngle(req.AngleDeg); err != nil {
		writeEngineError(w, err)
		return
	}

	s.logger.Printf("angle set to %g degrees", req.AngleDeg)
	httputil.WriteJSONOK(w, s.engine.Params())
}

// handleVMax hot-swaps the centerline velocity without interrupting a
// running acquisition.
func (s *Server) handleVMax(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req struct {
		VMax float64 `json:"vmax_mps"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}

	if err := s.engine.SetVMax(req.VMax); err != nil {
		writeEngineError(w, err)
		return
	}

	s.logger.Printf("vmax set to %g m/s", req.VMax)
	httputil.WriteJSONOK(w, s.engine.Params())
}

// handleEstimate returns the most recent velocity estimate, optionally
// converted with ?units= (mps, cmps, kmph, mph).
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	unit := r.URL.Query().Get("units")
	if unit == "" {
		unit = units.MPS
	}
	if !units.IsValid(unit) {
		httputil.BadRequest(w, fmt.Sprintf("invalid units %q; valid units are: %s", unit, units.GetValidUnitsString()))
		return
	}

	est, ok := s.engine.LatestEstimate()
	if !ok {
		httputil.NotFound(w, "no estimate available yet")
		return
	}

	resp := struct {
		Time             float64 `json:"time"`
		Velocity         float64 `json:"velocity"`
		EnvelopeVelocity float64 `json:"envelope_velocity"`
		TheoreticalMax   float64 `json:"theoretical_max"`
		AbsError         float64 `json:"abs_error"`
		RelError         float64 `json:"rel_error"`
		NoSignal         bool    `json:"no_signal"`
		Units            string  `json:"units"`
	}{
		Time:             est.Time,
		Velocity:         units.ConvertVelocity(est.Velocity, unit),
		EnvelopeVelocity: units.ConvertVelocity(est.EnvelopeVelocity, unit),
		TheoreticalMax:   units.ConvertVelocity(est.TheoreticalMax, unit),
		AbsError:         units.ConvertVelocity(est.AbsError, unit),
		RelError:         est.RelError,
		NoSignal:         est.NoSignal,
		Units:            unit,
	}
	httputil.WriteJSONOK(w, resp)
}

// handleEstimates returns recorded estimates for a session from the
// database. Defaults to the engine's current session.
func (s *Server) handleEstimates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "estimate database not configured")
		return
	}

	session := r.URL.Query().Get("session")
	if session == "" {
		session = s.engine.SessionID()
	}
	if session == "" {
		httputil.BadRequest(w, "no session specified and no acquisition has run")
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 || parsed > 10000 {
			httputil.BadRequest(w, "limit must be a positive integer up to 10000")
			return
		}
		limit = parsed
	}

	ests, err := s.db.Estimates(session, limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to query estimates: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"session_id": session,
		"estimates":  ests,
	})
}

// writeEngineError maps engine errors onto HTTP statuses: validation
// failures are 400, lifecycle conflicts are 409.
func writeEngineError(w http.ResponseWriter, err error) {
	var cfgErr *doppler.ConfigError
	var domErr *doppler.DomainError
	switch {
	case errors.Is(err, doppler.ErrRunning):
		httputil.Conflict(w, err.Error())
	case errors.As(err, &cfgErr), errors.As(err, &domErr):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
}
