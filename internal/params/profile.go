// Package params builds the immutable per-variant parameter profile.
//
// A profile is assembled in a fixed order: base defaults, then the
// variant's override record, then any calibration file overrides, then
// the derived fields (center of gravity, rotational inertia, tire
// stiffness). Derived fields are never hand-specified per variant.
package params

import (
	"strings"

	"github.com/kgkim70/openpilot/internal/interp"
)

// Variant identifies a supported vehicle.
type Variant string

const (
	Bolt        Variant = "BOLT"
	Volt        Variant = "VOLT"
	Malibu      Variant = "MALIBU"
	Acadia      Variant = "ACADIA"
	CadillacATS Variant = "CADILLAC_ATS"
)

// ParseVariant normalizes a user-supplied variant name. Unknown names are
// returned as-is; Build falls back to base defaults for them.
func ParseVariant(s string) Variant {
	v := Variant(strings.ToUpper(strings.TrimSpace(s)))
	v = Variant(strings.ReplaceAll(string(v), " ", "_"))
	return v
}

// Known reports whether the variant has an override record.
func (v Variant) Known() bool {
	_, ok := variantOverrides[v]
	return ok
}

// SafetyModel tags the safety policy the bus gateway must enforce.
type SafetyModel string

const (
	SafetyGM       SafetyModel = "gm"
	SafetyNoOutput SafetyModel = "noOutput"
)

// PIDTuning is the lateral PID schedule.
type PIDTuning struct {
	Kp interp.Curve `json:"kp"`
	Ki interp.Curve `json:"ki"`
	Kf float64      `json:"kf"`
}

// LQRTuning is the lateral LQR model and gains.
type LQRTuning struct {
	Scale  interp.Curve `json:"scale"`
	Ki     float64      `json:"ki"`
	A      []float64    `json:"a"`
	B      []float64    `json:"b"`
	C      []float64    `json:"c"`
	K      []float64    `json:"k"`
	L      []float64    `json:"l"`
	DcGain float64      `json:"dc_gain"`
}

// Lateral tuning kinds.
const (
	LateralPID = "pid"
	LateralLQR = "lqr"
)

// LateralTuning holds exactly one of PID or LQR, selected by Kind.
type LateralTuning struct {
	Kind string     `json:"kind"`
	PID  *PIDTuning `json:"pid,omitempty"`
	LQR  *LQRTuning `json:"lqr,omitempty"`
}

// LongitudinalTuning is the speed-scheduled longitudinal gain set.
type LongitudinalTuning struct {
	Kp       interp.Curve `json:"kp"`
	Ki       interp.Curve `json:"ki"`
	Deadzone interp.Curve `json:"deadzone"`
}

// Profile is the complete parameter set for one session. Treat it as
// read-only; Clone before handing it to code that might modify it.
type Profile struct {
	Variant     Variant     `json:"variant"`
	CarName     string      `json:"car_name"`
	SafetyModel SafetyModel `json:"safety_model"`

	// EnableCruise declares whether stock cruise is used for engagement.
	// It is a capability flag only; the decoded cruise state decides
	// enablement at runtime.
	EnableCruise                 bool `json:"enable_cruise"`
	CommunityFeature             bool `json:"community_feature"`
	EnableCamera                 bool `json:"enable_camera"`
	OpenpilotLongitudinalControl bool `json:"openpilot_longitudinal_control"`
	IsPandaBlack                 bool `json:"is_panda_black"`

	Mass           float64 `json:"mass"`
	Wheelbase      float64 `json:"wheelbase"`
	CenterToFront  float64 `json:"center_to_front"`
	SteerRatio     float64 `json:"steer_ratio"`
	SteerRatioRear float64 `json:"steer_ratio_rear"`

	RotationalInertia   float64 `json:"rotational_inertia"`
	TireStiffnessFront  float64 `json:"tire_stiffness_front"`
	TireStiffnessRear   float64 `json:"tire_stiffness_rear"`
	TireStiffnessFactor float64 `json:"tire_stiffness_factor"`

	SteerRateCost      float64       `json:"steer_rate_cost"`
	SteerActuatorDelay float64       `json:"steer_actuator_delay"`
	SteerMax           interp.Curve  `json:"steer_max"`
	SteerLimitTimer    float64       `json:"steer_limit_timer"`
	LateralTuning      LateralTuning `json:"lateral_tuning"`

	LongitudinalTuning LongitudinalTuning `json:"longitudinal_tuning"`
	StoppingControl    bool               `json:"stopping_control"`
	StartAccel         float64            `json:"start_accel"`
	MinEnableSpeed     float64            `json:"min_enable_speed"`
	RadarTimeStep      float64            `json:"radar_time_step"`
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := p
	out.SteerMax = p.SteerMax.Clone()
	out.LateralTuning = p.LateralTuning.clone()
	out.LongitudinalTuning = LongitudinalTuning{
		Kp:       p.LongitudinalTuning.Kp.Clone(),
		Ki:       p.LongitudinalTuning.Ki.Clone(),
		Deadzone: p.LongitudinalTuning.Deadzone.Clone(),
	}
	return out
}

func (lt LateralTuning) clone() LateralTuning {
	out := LateralTuning{Kind: lt.Kind}
	if lt.PID != nil {
		pid := *lt.PID
		pid.Kp = lt.PID.Kp.Clone()
		pid.Ki = lt.PID.Ki.Clone()
		out.PID = &pid
	}
	if lt.LQR != nil {
		lqr := *lt.LQR
		lqr.Scale = lt.LQR.Scale.Clone()
		lqr.A = append([]float64(nil), lt.LQR.A...)
		lqr.B = append([]float64(nil), lt.LQR.B...)
		lqr.C = append([]float64(nil), lt.LQR.C...)
		lqr.K = append([]float64(nil), lt.LQR.K...)
		lqr.L = append([]float64(nil), lt.LQR.L...)
		out.LQR = &lqr
	}
	return out
}
