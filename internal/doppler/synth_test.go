package doppler

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"
)

func TestNewSynthesizerValidation(t *testing.T) {
	cases := []struct {
		name               string
		f0, c, fs, noise   float64
	}{
		{"zero f0", 0, 1540, 5000, 0.1},
		{"negative c", 5e6, -1, 5000, 0.1},
		{"zero fs", 5e6, 1540, 0, 0.1},
		{"negative noise", 5e6, 1540, 5000, -0.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSynthesizer(tc.f0, tc.c, tc.fs, tc.noise, 1)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("NewSynthesizer error = %v, want ConfigError", err)
			}
		})
	}
}

// singleScattererField pins one reflector at a known velocity and phase so
// the synthesized output is a pure tone.
func singleScattererField(vel, phase float64) *Field {
	return &Field{
		geom: testGeometry(),
		pool: []scatterer{{radial: 0, vel: vel, phase: phase}},
		rng:  rand.New(rand.NewSource(1)),
	}
}

func TestSynthesizerPureTone(t *testing.T) {
	const (
		f0  = 5e6
		c   = 1540.0
		fs  = 5000.0
		vel = 0.5
	)
	cosTheta := 0.5 // 60 degrees
	wantFd := 2 * f0 * vel * cosTheta / c

	syn, err := NewSynthesizer(f0, c, fs, 0, 1)
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}
	field := singleScattererField(vel, 0)

	// With noise off, consecutive samples of a single tone differ by a
	// rotation of exactly 2*pi*fd/fs.
	prev := syn.Sample(field, cosTheta)
	wantStep := 2 * math.Pi * wantFd / fs
	for i := 0; i < 200; i++ {
		cur := syn.Sample(field, cosTheta)
		step := cmplx.Phase(cur * cmplx.Conj(prev))
		if math.Abs(step-wantStep) > 1e-9 {
			t.Fatalf("sample %d phase step = %v, want %v", i, step, wantStep)
		}
		prev = cur
	}
}

func TestSynthesizerInitialPhase(t *testing.T) {
	syn, err := NewSynthesizer(5e6, 1540, 5000, 0, 1)
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}
	field := singleScattererField(0.3, math.Pi/3)
	s := syn.Sample(field, 0.5)
	if got := cmplx.Phase(s); math.Abs(got-math.Pi/3) > 1e-9 {
		t.Errorf("first sample phase = %v, want %v", got, math.Pi/3)
	}
}

func TestSynthesizerBoundedOutput(t *testing.T) {
	const noiseAmp = 0.1
	prof, err := NewProfile(testGeometry())
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	field, err := NewField(prof, 500, 11)
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	syn, err := NewSynthesizer(5e6, 1540, 5000, noiseAmp, 2)
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}

	// Per-component bound: N scatterers at amplitude 1/sqrt(N) plus noise.
	bound := math.Sqrt(500) + noiseAmp
	for i := 0; i < 5000; i++ {
		s := syn.Sample(field, 0.5)
		if math.IsNaN(real(s)) || math.IsNaN(imag(s)) || cmplx.IsInf(s) {
			t.Fatalf("sample %d not finite: %v", i, s)
		}
		if math.Abs(real(s)) > bound || math.Abs(imag(s)) > bound {
			t.Fatalf("sample %d = %v exceeds bound %v", i, s, bound)
		}
		if err := field.Advance(prof, 1/5000.0); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
}

func TestSynthesizerClockAdvances(t *testing.T) {
	syn, err := NewSynthesizer(5e6, 1540, 5000, 0, 1)
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}
	field := singleScattererField(0.1, 0)
	for i := 0; i < 10; i++ {
		syn.Sample(field, 0.5)
	}
	if got, want := syn.Now(), 10/5000.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}
