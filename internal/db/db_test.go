package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordSession(t *testing.T) {
	db := newTestDB(t)

	if err := db.RecordSession("abc-123", `{"angle_deg":60}`); err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}

	params, err := db.SessionParams("abc-123")
	if err != nil {
		t.Fatalf("SessionParams failed: %v", err)
	}
	if params != `{"angle_deg":60}` {
		t.Errorf("unexpected params: %s", params)
	}
}

func TestSessionParamsUnknown(t *testing.T) {
	db := newTestDB(t)

	_, err := db.SessionParams("nope")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestRecordSessionReplace(t *testing.T) {
	db := newTestDB(t)

	if err := db.RecordSession("abc", `{"vmax_mps":0.5}`); err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}
	if err := db.RecordSession("abc", `{"vmax_mps":0.8}`); err != nil {
		t.Fatalf("RecordSession replace failed: %v", err)
	}

	params, err := db.SessionParams("abc")
	if err != nil {
		t.Fatalf("SessionParams failed: %v", err)
	}
	if params != `{"vmax_mps":0.8}` {
		t.Errorf("expected replaced params, got %s", params)
	}
}

func TestRecordAndQueryEstimates(t *testing.T) {
	db := newTestDB(t)

	if err := db.RecordSession("s1", "{}"); err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		err := db.RecordEstimate(Estimate{
			SessionID:        "s1",
			SimTime:          float64(i) * 0.0128,
			Velocity:         0.48,
			EnvelopeVelocity: 0.50,
			TheoreticalMax:   0.5,
			AbsError:         0.02,
			RelError:         0.04,
		})
		if err != nil {
			t.Fatalf("RecordEstimate %d failed: %v", i, err)
		}
	}

	ests, err := db.Estimates("s1", 3)
	if err != nil {
		t.Fatalf("Estimates failed: %v", err)
	}
	if len(ests) != 3 {
		t.Fatalf("expected 3 estimates, got %d", len(ests))
	}
	// Newest first.
	if ests[0].SimTime < ests[1].SimTime {
		t.Errorf("expected descending sim_time, got %v then %v", ests[0].SimTime, ests[1].SimTime)
	}
	if ests[0].Velocity != 0.48 {
		t.Errorf("velocity = %v, want 0.48", ests[0].Velocity)
	}
	if ests[0].NoSignal {
		t.Error("expected no_signal false")
	}
}

func TestEstimatesEmptySession(t *testing.T) {
	db := newTestDB(t)

	ests, err := db.Estimates("missing", 10)
	if err != nil {
		t.Fatalf("Estimates failed: %v", err)
	}
	if len(ests) != 0 {
		t.Errorf("expected no estimates, got %d", len(ests))
	}
}

func TestMigrateUpDown(t *testing.T) {
	db := newTestDB(t)

	if err := db.MigrateUp("../../migrations"); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion("../../migrations")
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("database should not be dirty after migration")
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}

	if err := db.MigrateDown("../../migrations"); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
}
