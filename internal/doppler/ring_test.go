package doppler

import (
	"errors"
	"testing"
)

func TestNewSampleRingValidation(t *testing.T) {
	_, err := NewSampleRing(0)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("NewSampleRing(0) error = %v, want ConfigError", err)
	}
}

func TestSampleRingLatestOrder(t *testing.T) {
	r, err := NewSampleRing(8)
	if err != nil {
		t.Fatalf("NewSampleRing: %v", err)
	}
	if _, ok := r.Latest(4); ok {
		t.Fatal("Latest succeeded on empty ring")
	}
	for i := 0; i < 6; i++ {
		r.Push(complex(float64(i), 0))
	}
	got, ok := r.Latest(4)
	if !ok {
		t.Fatal("Latest(4) failed with 6 samples buffered")
	}
	for i, want := range []float64{2, 3, 4, 5} {
		if real(got[i]) != want {
			t.Errorf("Latest[%d] = %v, want %v", i, real(got[i]), want)
		}
	}
}

func TestSampleRingOverwritesOldest(t *testing.T) {
	r, err := NewSampleRing(4)
	if err != nil {
		t.Fatalf("NewSampleRing: %v", err)
	}
	for i := 0; i < 10; i++ {
		r.Push(complex(float64(i), 0))
	}
	if r.Total() != 10 {
		t.Fatalf("Total = %d, want 10", r.Total())
	}
	got, ok := r.Latest(4)
	if !ok {
		t.Fatal("Latest(4) failed")
	}
	// Only the newest four survive; the oldest were dropped, never the newest.
	for i, want := range []float64{6, 7, 8, 9} {
		if real(got[i]) != want {
			t.Errorf("Latest[%d] = %v, want %v", i, real(got[i]), want)
		}
	}
}

func TestSampleRingCopyRange(t *testing.T) {
	r, err := NewSampleRing(4)
	if err != nil {
		t.Fatalf("NewSampleRing: %v", err)
	}
	for i := 0; i < 6; i++ {
		r.Push(complex(float64(i), 0))
	}

	dst := make([]complex128, 3)
	if !r.CopyRange(3, dst) {
		t.Fatal("CopyRange(3) failed for resident range")
	}
	for i, want := range []float64{3, 4, 5} {
		if real(dst[i]) != want {
			t.Errorf("CopyRange[%d] = %v, want %v", i, real(dst[i]), want)
		}
	}

	// Overwritten head
	if r.CopyRange(0, dst) {
		t.Error("CopyRange(0) succeeded for overwritten samples")
	}
	// Beyond the newest sample
	if r.CopyRange(4, dst) {
		t.Error("CopyRange(4) succeeded past the newest sample")
	}
	// Negative start
	if r.CopyRange(-1, dst) {
		t.Error("CopyRange(-1) succeeded")
	}
}
