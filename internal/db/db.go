// Package db persists acquisition sessions and velocity estimates.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the sqlite database at path and
// ensures the base schema exists.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			params_json       TEXT,
			started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS estimates (
			session_id        TEXT,
			sim_time          DOUBLE,
			velocity          DOUBLE,
			envelope_velocity DOUBLE,
			theoretical_max   DOUBLE,
			abs_error         DOUBLE,
			rel_error         DOUBLE,
			no_signal         BOOLEAN,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE INDEX IF NOT EXISTS idx_estimates_session
			ON estimates(session_id, sim_time);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Estimate is one persisted velocity measurement.
type Estimate struct {
	SessionID        string    `json:"session_id"`
	SimTime          float64   `json:"sim_time"`
	Velocity         float64   `json:"velocity_mps"`
	EnvelopeVelocity float64   `json:"envelope_velocity_mps"`
	TheoreticalMax   float64   `json:"theoretical_max_mps"`
	AbsError         float64   `json:"abs_error_mps"`
	RelError         float64   `json:"rel_error"`
	NoSignal         bool      `json:"no_signal"`
	Timestamp        time.Time `json:"timestamp"`
}

// RecordSession registers a new acquisition session with its parameter
// snapshot serialized as JSON.
func (db *DB) RecordSession(sessionID, paramsJSON string) error {
	_, err := db.Exec(
		"INSERT OR REPLACE INTO sessions (session_id, params_json) VALUES (?, ?)",
		sessionID, paramsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RecordEstimate appends one velocity estimate for the given session.
func (db *DB) RecordEstimate(e Estimate) error {
	_, err := db.Exec(`
		INSERT INTO estimates
			(session_id, sim_time, velocity, envelope_velocity,
			 theoretical_max, abs_error, rel_error, no_signal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.SimTime, e.Velocity, e.EnvelopeVelocity,
		e.TheoreticalMax, e.AbsError, e.RelError, e.NoSignal,
	)
	if err != nil {
		return fmt.Errorf("failed to record estimate: %w", err)
	}
	return nil
}

// Estimates returns up to limit estimates for a session, newest first.
func (db *DB) Estimates(sessionID string, limit int) ([]Estimate, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT session_id, sim_time, velocity, envelope_velocity,
		       theoretical_max, abs_error, rel_error, no_signal, timestamp
		FROM estimates
		WHERE session_id = ?
		ORDER BY sim_time DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	defer rows.Close()

	var out []Estimate
	for rows.Next() {
		var e Estimate
		if err := rows.Scan(
			&e.SessionID, &e.SimTime, &e.Velocity, &e.EnvelopeVelocity,
			&e.TheoreticalMax, &e.AbsError, &e.RelError, &e.NoSignal, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SessionParams returns the parameter JSON recorded for a session, or
// sql.ErrNoRows if the session is unknown.
func (db *DB) SessionParams(sessionID string) (string, error) {
	var paramsJSON string
	err := db.QueryRow(
		"SELECT params_json FROM sessions WHERE session_id = ?", sessionID,
	).Scan(&paramsJSON)
	if err != nil {
		return "", err
	}
	return paramsJSON, nil
}
