package doppler

import (
	"math"
	"math/rand"
)

// Synthesizer converts instantaneous scatterer state into one complex
// baseband sample per call. Each scatterer contributes a tone at its Doppler
// shift f_d = 2 f0 v cosθ / c; contributions are summed with amplitude
// 1/sqrt(N) and bounded uniform noise is added to both I and Q.
//
// Time is a single running accumulator advanced by 1/fs per sample, so
// phase accumulation stays continuous across ticks and across parameter
// snapshot swaps.
type Synthesizer struct {
	f0       float64
	c        float64
	fs       float64
	noiseAmp float64
	rng      *rand.Rand
	t        float64
}

// NewSynthesizer validates the physical rates and returns a synthesizer
// with its clock at zero.
func NewSynthesizer(f0, c, fs, noiseAmp float64, seed int64) (*Synthesizer, error) {
	switch {
	case f0 <= 0:
		return nil, &ConfigError{Field: "transducer_freq_hz", Reason: "must be positive"}
	case c <= 0:
		return nil, &ConfigError{Field: "speed_of_sound_mps", Reason: "must be positive"}
	case fs <= 0:
		return nil, &ConfigError{Field: "sample_rate_hz", Reason: "must be positive"}
	case noiseAmp < 0:
		return nil, &ConfigError{Field: "noise_amplitude", Reason: "must not be negative"}
	}
	return &Synthesizer{
		f0:       f0,
		c:        c,
		fs:       fs,
		noiseAmp: noiseAmp,
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

// Sample produces the baseband sample for the current instant and advances
// the running clock by one sample period. cosTheta is taken from the tick's
// parameter snapshot so an angle change never lands mid-tick.
func (s *Synthesizer) Sample(f *Field, cosTheta float64) complex128 {
	amp := 1 / math.Sqrt(float64(len(f.pool)))
	var re, im float64
	for i := range f.pool {
		sc := &f.pool[i]
		fd := 2 * s.f0 * sc.vel * cosTheta / s.c
		arg := 2*math.Pi*fd*s.t + sc.phase
		re += amp * math.Cos(arg)
		im += amp * math.Sin(arg)
	}
	re += s.noiseAmp * (2*s.rng.Float64() - 1)
	im += s.noiseAmp * (2*s.rng.Float64() - 1)
	s.t += 1 / s.fs
	return complex(re, im)
}

// Now returns the running acquisition time in seconds, i.e. the time of the
// next sample to be produced.
func (s *Synthesizer) Now() float64 { return s.t }
