package params

import "github.com/kgkim70/openpilot/internal/monitoring"

// defaultCenterToFrontRatio places the center of gravity at 40% of the
// wheelbase behind the front axle.
const defaultCenterToFrontRatio = 0.4

// Build returns the profile for variant v. Pass NoFingerprint() when no
// bus fingerprint is available. An unknown variant yields the base
// defaults and is logged, never returned as an error.
func Build(v Variant, fp Fingerprint, hasRelay bool) Profile {
	return BuildWithOverrides(v, fp, hasRelay, nil)
}

// BuildWithOverrides is Build with an extra calibration record applied
// after the variant table and before derived fields are computed.
func BuildWithOverrides(v Variant, fp Fingerprint, hasRelay bool, extra *Overrides) Profile {
	p := baseProfile(v)
	ratio := defaultCenterToFrontRatio

	if o, ok := variantOverrides[v]; ok {
		o.apply(&p, &ratio)
	} else {
		monitoring.Logf("params: unrecognized variant %q, using base defaults", v)
	}
	extra.apply(&p, &ratio)

	p.IsPandaBlack = hasRelay
	// Longitudinal control only when the stock camera is off the bus, so
	// its automatic braking is never silently overridden.
	p.EnableCamera = ECUDisconnected(fp.Bus(0), v, FwdCamera) || hasRelay
	p.OpenpilotLongitudinalControl = p.EnableCamera

	finalize(&p, ratio)
	return p.Clone()
}

// Defaults returns the base profile for v with no variant overrides,
// no fingerprint and no relay.
func Defaults(v Variant) Profile {
	p := baseProfile(v)
	finalize(&p, defaultCenterToFrontRatio)
	return p.Clone()
}

// finalize computes every derived field from the base fields.
func finalize(p *Profile, centerToFrontRatio float64) {
	p.CenterToFront = p.Wheelbase * centerToFrontRatio
	p.RotationalInertia = ScaleRotInertia(p.Mass, p.Wheelbase)
	p.TireStiffnessFront, p.TireStiffnessRear = ScaleTireStiffness(p.Mass, p.Wheelbase, p.CenterToFront, p.TireStiffnessFactor)
}
