package doppler

import "math"

// VelocityEstimator maps a frame's spectral peak back to flow velocity via
// the inverse Doppler relation v = f c / (2 f0 cosθ) and scores it against
// the configured centerline velocity.
type VelocityEstimator struct{}

// Estimate locates the bin with maximal power. When the peak itself sits
// below the absolute noise floor the estimate is zero velocity with
// NoSignal set; that is an explicit low-confidence state, not an error.
// The snapshot supplies cosθ, which Validate guarantees is nonzero.
//
// EnvelopeVelocity reports the fastest bin whose power exceeds the peak
// fraction threshold, the spectral-envelope reading that tracks the true
// maximum of a laminar flow's spread spectrum.
func (VelocityEstimator) Estimate(frame SpectrogramFrame, p Params) VelocityEstimate {
	est := VelocityEstimate{
		Time:           frame.Time,
		TheoreticalMax: p.VMax,
	}

	peakIdx := -1
	peakPower := 0.0
	for i, pw := range frame.Power {
		if pw > peakPower {
			peakIdx = i
			peakPower = pw
		}
	}
	if peakIdx < 0 || peakPower <= p.NoiseFloor {
		est.NoSignal = true
		est.AbsError = p.VMax
		est.RelError = 1
		return est
	}

	scale := p.SpeedOfSound / (2 * p.TransducerFreq * p.CosTheta())
	threshold := math.Max(p.NoiseFloor, p.PeakFraction*peakPower)
	envelope := 0.0
	for i, pw := range frame.Power {
		if pw <= threshold {
			continue
		}
		if v := math.Abs(frame.Freqs[i] * scale); v > envelope {
			envelope = v
		}
	}

	est.Velocity = frame.Freqs[peakIdx] * scale
	est.EnvelopeVelocity = envelope
	est.AbsError = math.Abs(est.Velocity - p.VMax)
	est.RelError = est.AbsError / p.VMax
	return est
}
