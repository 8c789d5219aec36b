package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/YassienTawfikk/SonoMetric/internal/doppler"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadTuningConfigPartial(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"angle_deg": 30, "stft_window": 256}`)
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if cfg.AngleDeg == nil || *cfg.AngleDeg != 30 {
		t.Errorf("AngleDeg = %v, want 30", cfg.AngleDeg)
	}
	if cfg.STFTWindow == nil || *cfg.STFTWindow != 256 {
		t.Errorf("STFTWindow = %v, want 256", cfg.STFTWindow)
	}
	if cfg.VMaxMPS != nil {
		t.Errorf("VMaxMPS = %v, want nil for omitted field", *cfg.VMaxMPS)
	}
}

func TestLoadTuningConfigRejectsExtension(t *testing.T) {
	path := writeConfig(t, "conf.yaml", "{}")
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected error for non-JSON extension")
	}
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadTuningConfigBadJSON(t *testing.T) {
	path := writeConfig(t, "bad.json", `{"angle_deg": `)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestApplyOverlaysBase(t *testing.T) {
	angle := 75.0
	window := 256
	tick := "50ms"
	cfg := &TuningConfig{
		AngleDeg:     &angle,
		STFTWindow:   &window,
		TickInterval: &tick,
	}

	base := doppler.DefaultParams()
	p, err := cfg.Apply(base)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if p.AngleDeg != 75 {
		t.Errorf("AngleDeg = %v, want 75", p.AngleDeg)
	}
	if p.WindowSize != 256 {
		t.Errorf("WindowSize = %d, want 256", p.WindowSize)
	}
	if p.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval = %v, want 50ms", p.TickInterval)
	}
	// Untouched fields keep their base values.
	if p.VMax != base.VMax {
		t.Errorf("VMax = %v, want base %v", p.VMax, base.VMax)
	}
	// Apply normalizes derived fields for the new window.
	if p.FFTSize != 256 {
		t.Errorf("FFTSize = %d, want 256 after normalize", p.FFTSize)
	}
}

func TestApplyBadDuration(t *testing.T) {
	tick := "soon"
	cfg := &TuningConfig{TickInterval: &tick}
	if _, err := cfg.Apply(doppler.DefaultParams()); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestParseTuningConfig(t *testing.T) {
	cfg, err := ParseTuningConfig([]byte(`{"v_max_mps": 0.8}`))
	if err != nil {
		t.Fatalf("ParseTuningConfig: %v", err)
	}
	if cfg.VMaxMPS == nil || *cfg.VMaxMPS != 0.8 {
		t.Errorf("VMaxMPS = %v, want 0.8", cfg.VMaxMPS)
	}
}
