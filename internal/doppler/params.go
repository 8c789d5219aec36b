package doppler

import (
	"math"
	"time"
)

// SpeedOfSoundTissue is the propagation speed assumed for soft tissue [m/s].
const SpeedOfSoundTissue = 1540.0

// SupportedAngles lists the selectable insonation angles in degrees. 90 is
// deliberately absent: cos(90°) = 0 makes the Doppler equation undefined, so
// it is rejected here at configuration time rather than at estimate time.
var SupportedAngles = []float64{30, 60, 75}

// Params holds one immutable snapshot of every parameter the acquisition
// loop reads. The engine swaps whole snapshots atomically at tick
// boundaries; individual fields are never mutated in place.
type Params struct {
	// Transducer and medium
	TransducerFreq float64 `json:"transducer_freq_hz"` // f0
	SpeedOfSound   float64 `json:"speed_of_sound_mps"` // c
	PRF            float64 `json:"prf_hz"`
	SampleRate     float64 `json:"sample_rate_hz"` // slow-time fs, one sample per pulse

	// Insonation and vessel
	AngleDeg     float64 `json:"angle_deg"`
	VMax         float64 `json:"v_max_mps"`       // centerline velocity
	VesselRadius float64 `json:"vessel_radius_m"` // R
	VesselLength float64 `json:"vessel_length_m"` // sample-volume axial extent

	// Scatterer ensemble
	NumScatterers  int     `json:"num_scatterers"`
	NoiseAmplitude float64 `json:"noise_amplitude"`

	// Spectral analysis
	WindowSize   int     `json:"stft_window"`   // W
	HopSize      int     `json:"stft_hop"`      // H
	FFTSize      int     `json:"fft_size"`      // M; 0 means next power of two >= W
	NoiseFloor   float64 `json:"noise_floor"`   // absolute power below which a frame is no-signal
	PeakFraction float64 `json:"peak_fraction"` // fraction of peak power a bin must exceed to count as signal

	// Buffers and cadence
	RingCapacity int           `json:"ring_capacity"` // 0 means 4*W
	HistorySize  int           `json:"history_size"`
	TickInterval time.Duration `json:"-"`
	Seed         int64         `json:"seed"`
}

// DefaultParams returns the canonical parameter set: a 3 mm radius vessel
// with 0.5 m/s laminar centerline flow insonated at 60 degrees by a 5 MHz
// transducer, sampled at the PRF.
func DefaultParams() Params {
	return Params{
		TransducerFreq: 5e6,
		SpeedOfSound:   SpeedOfSoundTissue,
		PRF:            5000,
		SampleRate:     5000,
		AngleDeg:       60,
		VMax:           0.5,
		VesselRadius:   0.003,
		VesselLength:   0.02,
		NumScatterers:  500,
		NoiseAmplitude: 0.1,
		WindowSize:     128,
		HopSize:        64,
		NoiseFloor:     1e-6,
		PeakFraction:   0.1,
		HistorySize:    256,
		TickInterval:   20 * time.Millisecond,
		Seed:           1,
	}
}

// Normalize fills derived fields left at their zero value: the FFT size is
// rounded up to the next power of two at least the window length, and the
// ring capacity defaults to four windows of guard space.
func (p Params) Normalize() Params {
	if p.FFTSize == 0 {
		p.FFTSize = nextPow2(p.WindowSize)
	}
	if p.RingCapacity == 0 {
		p.RingCapacity = 4 * p.WindowSize
	}
	if p.HistorySize == 0 {
		p.HistorySize = 256
	}
	if p.TickInterval == 0 {
		p.TickInterval = 20 * time.Millisecond
	}
	return p
}

// Validate checks the snapshot for physical and structural consistency.
// Call on a Normalize()d value. All violations return *ConfigError.
func (p Params) Validate() error {
	switch {
	case p.TransducerFreq <= 0:
		return &ConfigError{Field: "transducer_freq_hz", Reason: "must be positive"}
	case p.SpeedOfSound <= 0:
		return &ConfigError{Field: "speed_of_sound_mps", Reason: "must be positive"}
	case p.PRF <= 0:
		return &ConfigError{Field: "prf_hz", Reason: "must be positive"}
	case p.SampleRate <= 0:
		return &ConfigError{Field: "sample_rate_hz", Reason: "must be positive"}
	case p.VMax <= 0:
		return &ConfigError{Field: "v_max_mps", Reason: "must be positive"}
	case p.VesselRadius <= 0:
		return &ConfigError{Field: "vessel_radius_m", Reason: "must be positive"}
	case p.VesselLength <= 0:
		return &ConfigError{Field: "vessel_length_m", Reason: "must be positive"}
	case p.NumScatterers <= 0:
		return &ConfigError{Field: "num_scatterers", Reason: "must be positive"}
	case p.NoiseAmplitude < 0:
		return &ConfigError{Field: "noise_amplitude", Reason: "must not be negative"}
	case p.NoiseFloor < 0:
		return &ConfigError{Field: "noise_floor", Reason: "must not be negative"}
	case p.PeakFraction < 0 || p.PeakFraction >= 1:
		return &ConfigError{Field: "peak_fraction", Reason: "must be in [0, 1)"}
	case p.WindowSize < 2:
		return &ConfigError{Field: "stft_window", Reason: "must be at least 2"}
	case p.HopSize < 1:
		return &ConfigError{Field: "stft_hop", Reason: "must be at least 1"}
	case p.HopSize > p.WindowSize:
		return &ConfigError{Field: "stft_hop", Reason: "must not exceed the window length"}
	case p.FFTSize < p.WindowSize:
		return &ConfigError{Field: "fft_size", Reason: "must be at least the window length"}
	case p.FFTSize&(p.FFTSize-1) != 0:
		return &ConfigError{Field: "fft_size", Reason: "must be a power of two"}
	case p.RingCapacity < p.WindowSize:
		return &ConfigError{Field: "ring_capacity", Reason: "must hold at least one window"}
	case p.TickInterval <= 0:
		return &ConfigError{Field: "tick_interval", Reason: "must be positive"}
	}
	if !angleSupported(p.AngleDeg) {
		return &ConfigError{Field: "angle_deg", Reason: "must be one of 30, 60, 75"}
	}
	return nil
}

// CosTheta returns cos of the insonation angle. Validate guarantees the
// angle is never 90 degrees, so the result is never zero.
func (p Params) CosTheta() float64 {
	return math.Cos(p.AngleDeg * math.Pi / 180)
}

// FrequencyResolution is the spectral bin width fs/M in Hz.
func (p Params) FrequencyResolution() float64 {
	return p.SampleRate / float64(p.FFTSize)
}

// ResolutionBound is the velocity uncertainty implied by one spectral bin:
// c*(fs/M) / (2 f0 cos θ). Estimates closer to truth than this bound are
// indistinguishable from exact.
func (p Params) ResolutionBound() float64 {
	return p.SpeedOfSound * p.FrequencyResolution() / (2 * p.TransducerFreq * p.CosTheta())
}

// Geometry returns the vessel geometry portion of the snapshot.
func (p Params) Geometry() VesselGeometry {
	return VesselGeometry{
		Radius: p.VesselRadius,
		Length: p.VesselLength,
		VMax:   p.VMax,
	}
}

func angleSupported(deg float64) bool {
	for _, a := range SupportedAngles {
		if a == deg {
			return true
		}
	}
	return false
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
