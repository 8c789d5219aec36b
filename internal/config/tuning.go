package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/YassienTawfikk/SonoMetric/internal/doppler"
)

// DefaultConfigPath is the path to the canonical simulation defaults file.
// This is the single source of truth for all default acquisition values.
const DefaultConfigPath = "config/doppler.defaults.json"

// TuningConfig represents the root configuration for acquisition parameters.
// The schema matches the /api/params endpoint so the same JSON can be used
// for both startup configuration and runtime updates. All fields are
// pointers: omitted fields keep their current values, so partial configs
// are safe.
type TuningConfig struct {
	// Transducer and medium
	TransducerFreqHz *float64 `json:"transducer_freq_hz,omitempty"`
	SpeedOfSoundMPS  *float64 `json:"speed_of_sound_mps,omitempty"`
	PRFHz            *float64 `json:"prf_hz,omitempty"`
	SampleRateHz     *float64 `json:"sample_rate_hz,omitempty"`

	// Insonation and vessel
	AngleDeg      *float64 `json:"angle_deg,omitempty"`
	VMaxMPS       *float64 `json:"v_max_mps,omitempty"`
	VesselRadiusM *float64 `json:"vessel_radius_m,omitempty"`
	VesselLengthM *float64 `json:"vessel_length_m,omitempty"`

	// Scatterer ensemble
	NumScatterers  *int     `json:"num_scatterers,omitempty"`
	NoiseAmplitude *float64 `json:"noise_amplitude,omitempty"`

	// Spectral analysis
	STFTWindow   *int     `json:"stft_window,omitempty"`
	STFTHop      *int     `json:"stft_hop,omitempty"`
	FFTSize      *int     `json:"fft_size,omitempty"`
	NoiseFloor   *float64 `json:"noise_floor,omitempty"`
	PeakFraction *float64 `json:"peak_fraction,omitempty"`

	// Buffers and cadence
	RingCapacity *int    `json:"ring_capacity,omitempty"`
	HistorySize  *int    `json:"history_size,omitempty"`
	TickInterval *string `json:"tick_interval,omitempty"` // duration string like "20ms"
	Seed         *int64  `json:"seed,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to ensure it has a .json extension and is under the max file
// size. Fields omitted from the JSON file stay nil, so partial configs are
// safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return cfg, nil
}

// ParseTuningConfig decodes a TuningConfig from raw JSON, as received by
// the params endpoint.
func ParseTuningConfig(data []byte) (*TuningConfig, error) {
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cfg, nil
}

// Apply overlays the set fields onto base and returns the resulting
// parameter snapshot. The result is Normalize()d but not validated; the
// caller decides whether a violation is fatal.
func (c *TuningConfig) Apply(base doppler.Params) (doppler.Params, error) {
	p := base
	if c.TransducerFreqHz != nil {
		p.TransducerFreq = *c.TransducerFreqHz
	}
	if c.SpeedOfSoundMPS != nil {
		p.SpeedOfSound = *c.SpeedOfSoundMPS
	}
	if c.PRFHz != nil {
		p.PRF = *c.PRFHz
	}
	if c.SampleRateHz != nil {
		p.SampleRate = *c.SampleRateHz
	}
	if c.AngleDeg != nil {
		p.AngleDeg = *c.AngleDeg
	}
	if c.VMaxMPS != nil {
		p.VMax = *c.VMaxMPS
	}
	if c.VesselRadiusM != nil {
		p.VesselRadius = *c.VesselRadiusM
	}
	if c.VesselLengthM != nil {
		p.VesselLength = *c.VesselLengthM
	}
	if c.NumScatterers != nil {
		p.NumScatterers = *c.NumScatterers
	}
	if c.NoiseAmplitude != nil {
		p.NoiseAmplitude = *c.NoiseAmplitude
	}
	if c.STFTWindow != nil {
		p.WindowSize = *c.STFTWindow
	}
	if c.STFTHop != nil {
		p.HopSize = *c.STFTHop
	}
	if c.FFTSize != nil {
		p.FFTSize = *c.FFTSize
	}
	if c.NoiseFloor != nil {
		p.NoiseFloor = *c.NoiseFloor
	}
	if c.PeakFraction != nil {
		p.PeakFraction = *c.PeakFraction
	}
	if c.RingCapacity != nil {
		p.RingCapacity = *c.RingCapacity
	}
	if c.HistorySize != nil {
		p.HistorySize = *c.HistorySize
	}
	if c.TickInterval != nil {
		d, err := time.ParseDuration(*c.TickInterval)
		if err != nil {
			return p, fmt.Errorf("invalid tick_interval %q: %w", *c.TickInterval, err)
		}
		p.TickInterval = d
	}
	if c.Seed != nil {
		p.Seed = *c.Seed
	}
	return p.Normalize(), nil
}
