package doppler

import "sync"

// frameHistory retains the most recent spectrogram frames for rendering and
// late-joining consumers. Fixed capacity, oldest dropped first.
type frameHistory struct {
	mu     sync.Mutex
	frames []SpectrogramFrame
	pos    int
	full   bool
}

func newFrameHistory(capacity int) *frameHistory {
	return &frameHistory{frames: make([]SpectrogramFrame, capacity)}
}

func (h *frameHistory) add(f SpectrogramFrame) {
	h.mu.Lock()
	h.frames[h.pos] = f
	h.pos++
	if h.pos == len(h.frames) {
		h.pos = 0
		h.full = true
	}
	h.mu.Unlock()
}

// snapshot returns the retained frames oldest first.
func (h *frameHistory) snapshot() []SpectrogramFrame {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.full {
		out := make([]SpectrogramFrame, h.pos)
		copy(out, h.frames[:h.pos])
		return out
	}
	out := make([]SpectrogramFrame, len(h.frames))
	n := copy(out, h.frames[h.pos:])
	copy(out[n:], h.frames[:h.pos])
	return out
}
