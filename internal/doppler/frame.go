package doppler

// SpectrogramFrame is one column of the time-velocity spectrogram: the power
// spectrum of a single analysis window, with bin frequencies folded into
// [-fs/2, fs/2). Frames are immutable once emitted and strictly ordered by
// Seq and Time.
type SpectrogramFrame struct {
	Seq        int64     `json:"seq"`
	StartIndex int64     `json:"start_index"` // absolute index of the first sample in the window
	EndIndex   int64     `json:"end_index"`   // absolute index of the last sample in the window
	Time       float64   `json:"time"`        // window center time in seconds of acquisition
	Freqs      []float64 `json:"freqs"`       // Doppler frequency per bin [Hz]
	Power      []float64 `json:"power"`       // squared magnitude per bin
}

// VelocityEstimate is the measurement derived from one frame's spectral
// peak, with diagnostics against the configured centerline velocity.
type VelocityEstimate struct {
	Time             float64 `json:"time"`
	Velocity         float64 `json:"velocity_mps"`          // peak-bin estimate
	EnvelopeVelocity float64 `json:"envelope_velocity_mps"` // fastest bin above the noise floor
	TheoreticalMax   float64 `json:"theoretical_max_mps"`
	AbsError         float64 `json:"abs_error_mps"`
	RelError         float64 `json:"rel_error"`
	NoSignal         bool    `json:"no_signal"`
}
