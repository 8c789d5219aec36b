package doppler

import (
	"math"
	"math/rand"
)

// scatterer is one point reflector inside the sample volume. The radial
// position is static between respawns (straight laminar flow); only the
// axial position advances with the local flow velocity.
type scatterer struct {
	radial float64 // signed distance from the vessel axis, within [-R, R]
	axial  float64 // position along the vessel, within [-L/2, L/2]
	phase  float64 // baseband phase offset
	vel    float64 // cached flow velocity at radial, refreshed each Advance
}

// Field owns a fixed pool of scatterers. The pool is allocated once and
// mutated in place every tick; respawns recycle slots rather than allocate,
// so the ensemble size never changes.
type Field struct {
	geom VesselGeometry
	pool []scatterer
	rng  *rand.Rand
}

// NewField populates n scatterers uniformly over the sample volume: axial
// positions uniform over [-L/2, L/2], radial positions uniform over the 2-D
// cross-section, phases uniform over [0, 2π). The initial velocities come
// from the supplied profile.
func NewField(prof *Profile, n int, seed int64) (*Field, error) {
	if n <= 0 {
		return nil, &ConfigError{Field: "num_scatterers", Reason: "must be positive"}
	}
	g := prof.Geometry()
	f := &Field{
		geom: g,
		pool: make([]scatterer, n),
		rng:  rand.New(rand.NewSource(seed)),
	}
	for i := range f.pool {
		s := &f.pool[i]
		s.axial = (f.rng.Float64() - 0.5) * g.Length
		s.radial = f.sampleRadial()
		s.phase = 2 * math.Pi * f.rng.Float64()
		v, err := prof.VelocityAt(s.radial)
		if err != nil {
			return nil, err
		}
		s.vel = v
	}
	return f, nil
}

// Len returns the ensemble size, which is constant for the Field's lifetime.
func (f *Field) Len() int { return len(f.pool) }

// Advance moves every scatterer by dt under the given profile. A scatterer
// leaving the downstream end of the sample volume is respawned at the inflow
// boundary with a freshly sampled radial position and zero phase; this is
// the only creation/destruction event and preserves the pool size exactly.
func (f *Field) Advance(prof *Profile, dt float64) error {
	half := f.geom.Length / 2
	for i := range f.pool {
		s := &f.pool[i]
		v, err := prof.VelocityAt(s.radial)
		if err != nil {
			return err
		}
		s.vel = v
		s.axial += v * dt
		if s.axial > half {
			s.axial -= f.geom.Length
			s.radial = f.sampleRadial()
			s.phase = 0
			v, err = prof.VelocityAt(s.radial)
			if err != nil {
				return err
			}
			s.vel = v
		}
	}
	return nil
}

// Refresh recomputes every scatterer's cached velocity from prof. Call it
// when the flow profile changes, before the next sample is synthesized, so
// no sample mixes the new profile with velocities cached under the old one.
func (f *Field) Refresh(prof *Profile) error {
	for i := range f.pool {
		v, err := prof.VelocityAt(f.pool[i].radial)
		if err != nil {
			return err
		}
		f.pool[i].vel = v
	}
	return nil
}

// sampleRadial draws a signed radial position distributed uniformly over
// the circular cross-section: |r| = R*sqrt(u) with a random sign.
func (f *Field) sampleRadial() float64 {
	r := f.geom.Radius * math.Sqrt(f.rng.Float64())
	if f.rng.Intn(2) == 0 {
		return -r
	}
	return r
}
