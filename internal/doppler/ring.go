package doppler

import "sync"

// SampleRing is a fixed-capacity ring buffer of complex baseband samples.
// It is written by the simulation loop and read by the spectral estimator;
// the mutex keeps the single-writer/single-reader pair from observing a
// torn write when they run on different goroutines. The producer never
// blocks: once full, the oldest sample is overwritten.
type SampleRing struct {
	mu    sync.Mutex
	data  []complex128
	pos   int
	total int64
}

// NewSampleRing allocates a ring with the given capacity.
func NewSampleRing(capacity int) (*SampleRing, error) {
	if capacity <= 0 {
		return nil, &ConfigError{Field: "ring_capacity", Reason: "must be positive"}
	}
	return &SampleRing{data: make([]complex128, capacity)}, nil
}

// Cap returns the fixed capacity.
func (r *SampleRing) Cap() int { return len(r.data) }

// Total returns the monotonic count of samples ever pushed. Sample i (zero
// based) occupied absolute index i; only the most recent Cap() survive.
func (r *SampleRing) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Push appends one sample, overwriting the oldest when full.
func (r *SampleRing) Push(s complex128) {
	r.mu.Lock()
	r.data[r.pos] = s
	r.pos++
	if r.pos == len(r.data) {
		r.pos = 0
	}
	r.total++
	r.mu.Unlock()
}

// CopyRange copies samples [start, start+len(dst)) by absolute index into
// dst, oldest first. It reports false if the range is not fully resident:
// either it reaches past the newest sample or its head has already been
// overwritten.
func (r *SampleRing) CopyRange(start int64, dst []complex128) bool {
	n := int64(len(dst))
	r.mu.Lock()
	defer r.mu.Unlock()
	if start < 0 || start+n > r.total || start < r.total-int64(len(r.data)) {
		return false
	}
	for i := int64(0); i < n; i++ {
		abs := start + i
		// physical slot of absolute index abs
		slot := int(abs % int64(len(r.data)))
		dst[i] = r.data[slot]
	}
	return true
}

// Latest copies the most recent n samples into a new slice, oldest first.
// It reports false until n samples have been pushed.
func (r *SampleRing) Latest(n int) ([]complex128, bool) {
	if n <= 0 || n > len(r.data) {
		return nil, false
	}
	dst := make([]complex128, n)
	r.mu.Lock()
	total := r.total
	r.mu.Unlock()
	if total < int64(n) {
		return nil, false
	}
	if !r.CopyRange(total-int64(n), dst) {
		return nil, false
	}
	return dst, true
}
