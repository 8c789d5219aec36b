package doppler

// VesselGeometry describes the insonated vessel segment: lumen radius,
// axial length of the sample volume, and the centerline velocity that the
// laminar profile peaks at.
type VesselGeometry struct {
	Radius float64
	Length float64
	VMax   float64
}

// Profile is the laminar (parabolic) velocity field of a straight vessel.
// It is a pure function of radial position and carries no mutable state, so
// one value may be shared freely across goroutines.
type Profile struct {
	geom VesselGeometry
}

// NewProfile validates the geometry and returns the flow profile.
func NewProfile(g VesselGeometry) (*Profile, error) {
	if g.Radius <= 0 {
		return nil, &ConfigError{Field: "vessel_radius_m", Reason: "must be positive"}
	}
	if g.Length <= 0 {
		return nil, &ConfigError{Field: "vessel_length_m", Reason: "must be positive"}
	}
	if g.VMax <= 0 {
		return nil, &ConfigError{Field: "v_max_mps", Reason: "must be positive"}
	}
	return &Profile{geom: g}, nil
}

// VelocityAt evaluates vmax*(1-(r/R)^2) for |r| <= R. Positions outside the
// lumen are undefined and return a *DomainError. VelocityAt(0) is exactly
// vmax and VelocityAt(±R) is exactly zero.
func (p *Profile) VelocityAt(r float64) (float64, error) {
	R := p.geom.Radius
	if r > R || r < -R {
		return 0, &DomainError{Op: "velocity_at", Value: r, Reason: "outside vessel lumen"}
	}
	ratio := r / R
	return p.geom.VMax * (1 - ratio*ratio), nil
}

// Geometry returns the vessel geometry the profile was built from.
func (p *Profile) Geometry() VesselGeometry { return p.geom }
