package doppler

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// SpectralEstimator runs a short-time Fourier transform against the live
// sample ring. Windows are W samples long and advance by the hop H, so
// consecutive windows overlap by W-H samples. Each ready window is Hamming
// weighted, zero-padded to the FFT size M, and transformed; the squared
// magnitudes become one SpectrogramFrame with bin frequencies folded into
// [-fs/2, fs/2).
//
// The window boundary advances deterministically: the k-th frame always
// covers absolute samples [k*H, k*H+W). No frame is emitted until W samples
// have been buffered, so warm-up produces zero frames rather than
// degenerate ones.
type SpectralEstimator struct {
	ring    *SampleRing
	fs      float64
	winLen  int
	hop     int
	fftSize int

	fft     *fourier.CmplxFFT
	segment []complex128 // winLen scratch, re-windowed every frame
	padded  []complex128 // fftSize scratch
	coeffs  []complex128
	freqs   []float64 // shifted frequency axis, computed once

	nextEnd int64 // absolute index one past the next window to emit
	seq     int64
	skipped int64 // windows lost to ring overwrite
}

// NewSpectralEstimator builds the estimator from a validated parameter
// snapshot. Window geometry is fixed for the estimator's lifetime.
func NewSpectralEstimator(ring *SampleRing, p Params) *SpectralEstimator {
	e := &SpectralEstimator{
		ring:    ring,
		fs:      p.SampleRate,
		winLen:  p.WindowSize,
		hop:     p.HopSize,
		fftSize: p.FFTSize,
		fft:     fourier.NewCmplxFFT(p.FFTSize),
		segment: make([]complex128, p.WindowSize),
		padded:  make([]complex128, p.FFTSize),
		coeffs:  make([]complex128, p.FFTSize),
		freqs:   shiftedFreqs(p.FFTSize, p.SampleRate),
		nextEnd: int64(p.WindowSize),
	}
	return e
}

// Process emits every window that has become ready since the last call, in
// strictly increasing time order. If the producer has lapped the ring so
// far that a pending window was overwritten, that window is skipped and the
// boundary jumps forward; Skipped counts such losses.
func (e *SpectralEstimator) Process() []SpectrogramFrame {
	var frames []SpectrogramFrame
	for {
		total := e.ring.Total()
		if total < e.nextEnd {
			return frames
		}
		start := e.nextEnd - int64(e.winLen)
		if !e.ring.CopyRange(start, e.segment) {
			// Window head already overwritten; jump to the oldest
			// still-complete window on the hop grid.
			e.resync(total)
			e.skipped++
			continue
		}
		frames = append(frames, e.emit(start))
		e.nextEnd += int64(e.hop)
	}
}

// Skipped returns the number of windows dropped because the simulation
// outpaced spectral processing.
func (e *SpectralEstimator) Skipped() int64 { return e.skipped }

func (e *SpectralEstimator) emit(start int64) SpectrogramFrame {
	window.HammingComplex(e.segment)
	copy(e.padded, e.segment)
	for i := e.winLen; i < e.fftSize; i++ {
		e.padded[i] = 0
	}
	e.fft.Coefficients(e.coeffs, e.padded)

	m := e.fftSize
	power := make([]float64, m)
	for j := 0; j < m; j++ {
		// j indexes the shifted axis; map back to the DFT bin.
		k := (j + m/2) % m
		re := real(e.coeffs[k])
		im := imag(e.coeffs[k])
		power[j] = re*re + im*im
	}

	end := start + int64(e.winLen) - 1
	frame := SpectrogramFrame{
		Seq:        e.seq,
		StartIndex: start,
		EndIndex:   end,
		Time:       (float64(start) + float64(e.winLen)/2) / e.fs,
		Freqs:      e.freqs,
		Power:      power,
	}
	e.seq++
	return frame
}

// resync advances nextEnd to the first multiple of the hop grid whose full
// window is still resident in the ring.
func (e *SpectralEstimator) resync(total int64) {
	oldest := total - int64(e.ring.Cap())
	for e.nextEnd-int64(e.winLen) < oldest || e.nextEnd < int64(e.winLen) {
		e.nextEnd += int64(e.hop)
	}
}

// shiftedFreqs returns the DFT bin frequencies reordered to run from -fs/2
// up to fs/2 - fs/m.
func shiftedFreqs(m int, fs float64) []float64 {
	freqs := make([]float64, m)
	for j := 0; j < m; j++ {
		freqs[j] = fs * float64(j-m/2) / float64(m)
	}
	return freqs
}
