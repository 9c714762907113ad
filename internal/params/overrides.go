package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kgkim70/openpilot/internal/interp"
)

// Overrides is a sparse set of base-field replacements. Nil fields keep
// the value already in the profile. Derived fields are deliberately absent.
type Overrides struct {
	SafetyModel    *SafetyModel `json:"safety_model,omitempty"`
	MinEnableSpeed *float64     `json:"min_enable_speed,omitempty"`

	// CurbMass excludes cargo; StdCargoKg is added when applied.
	CurbMass            *float64 `json:"curb_mass,omitempty"`
	Wheelbase           *float64 `json:"wheelbase,omitempty"`
	CenterToFrontRatio  *float64 `json:"center_to_front_ratio,omitempty"`
	SteerRatio          *float64 `json:"steer_ratio,omitempty"`
	SteerRatioRear      *float64 `json:"steer_ratio_rear,omitempty"`
	TireStiffnessFactor *float64 `json:"tire_stiffness_factor,omitempty"`

	SteerRateCost      *float64       `json:"steer_rate_cost,omitempty"`
	SteerActuatorDelay *float64       `json:"steer_actuator_delay,omitempty"`
	SteerMax           *interp.Curve  `json:"steer_max,omitempty"`
	SteerLimitTimer    *float64       `json:"steer_limit_timer,omitempty"`
	LateralTuning      *LateralTuning `json:"lateral_tuning,omitempty"`

	LongitudinalKp  *interp.Curve `json:"longitudinal_kp,omitempty"`
	LongitudinalKi  *interp.Curve `json:"longitudinal_ki,omitempty"`
	StoppingControl *bool         `json:"stopping_control,omitempty"`
	StartAccel      *float64      `json:"start_accel,omitempty"`
}

// LoadOverrides loads a calibration override file. The file must be JSON
// and under 1MB; it is validated before being returned.
func LoadOverrides(path string) (*Overrides, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("overrides file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat overrides file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("overrides file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	o := &Overrides{}
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("failed to parse overrides JSON: %w", err)
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("invalid overrides: %w", err)
	}
	return o, nil
}

// Validate checks that every set field is physically plausible.
func (o *Overrides) Validate() error {
	if o.CurbMass != nil && *o.CurbMass <= 0 {
		return fmt.Errorf("curb_mass must be positive, got %f", *o.CurbMass)
	}
	if o.Wheelbase != nil && *o.Wheelbase <= 0 {
		return fmt.Errorf("wheelbase must be positive, got %f", *o.Wheelbase)
	}
	if o.CenterToFrontRatio != nil {
		if r := *o.CenterToFrontRatio; r <= 0 || r >= 1 {
			return fmt.Errorf("center_to_front_ratio must be between 0 and 1, got %f", r)
		}
	}
	if o.SteerRatio != nil && *o.SteerRatio <= 0 {
		return fmt.Errorf("steer_ratio must be positive, got %f", *o.SteerRatio)
	}
	if o.TireStiffnessFactor != nil && *o.TireStiffnessFactor <= 0 {
		return fmt.Errorf("tire_stiffness_factor must be positive, got %f", *o.TireStiffnessFactor)
	}
	if o.SteerActuatorDelay != nil && *o.SteerActuatorDelay < 0 {
		return fmt.Errorf("steer_actuator_delay must be non-negative, got %f", *o.SteerActuatorDelay)
	}
	for name, c := range map[string]*interp.Curve{
		"steer_max":       o.SteerMax,
		"longitudinal_kp": o.LongitudinalKp,
		"longitudinal_ki": o.LongitudinalKi,
	} {
		if c == nil {
			continue
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if lt := o.LateralTuning; lt != nil {
		switch lt.Kind {
		case LateralPID:
			if lt.PID == nil {
				return fmt.Errorf("lateral_tuning kind %q has no pid block", lt.Kind)
			}
		case LateralLQR:
			if lt.LQR == nil {
				return fmt.Errorf("lateral_tuning kind %q has no lqr block", lt.Kind)
			}
		default:
			return fmt.Errorf("unsupported lateral_tuning kind %q", lt.Kind)
		}
	}
	return nil
}

// apply writes the set fields onto p. The center of gravity ratio is
// returned separately because CenterToFront is resolved after all
// overrides, against the final wheelbase.
func (o *Overrides) apply(p *Profile, centerToFrontRatio *float64) {
	if o == nil {
		return
	}
	if o.SafetyModel != nil {
		p.SafetyModel = *o.SafetyModel
	}
	if o.MinEnableSpeed != nil {
		p.MinEnableSpeed = *o.MinEnableSpeed
	}
	if o.CurbMass != nil {
		p.Mass = *o.CurbMass + StdCargoKg
	}
	if o.Wheelbase != nil {
		p.Wheelbase = *o.Wheelbase
	}
	if o.CenterToFrontRatio != nil {
		*centerToFrontRatio = *o.CenterToFrontRatio
	}
	if o.SteerRatio != nil {
		p.SteerRatio = *o.SteerRatio
	}
	if o.SteerRatioRear != nil {
		p.SteerRatioRear = *o.SteerRatioRear
	}
	if o.TireStiffnessFactor != nil {
		p.TireStiffnessFactor = *o.TireStiffnessFactor
	}
	if o.SteerRateCost != nil {
		p.SteerRateCost = *o.SteerRateCost
	}
	if o.SteerActuatorDelay != nil {
		p.SteerActuatorDelay = *o.SteerActuatorDelay
	}
	if o.SteerMax != nil {
		p.SteerMax = o.SteerMax.Clone()
	}
	if o.SteerLimitTimer != nil {
		p.SteerLimitTimer = *o.SteerLimitTimer
	}
	if o.LateralTuning != nil {
		p.LateralTuning = o.LateralTuning.clone()
	}
	if o.LongitudinalKp != nil {
		p.LongitudinalTuning.Kp = o.LongitudinalKp.Clone()
	}
	if o.LongitudinalKi != nil {
		p.LongitudinalTuning.Ki = o.LongitudinalKi.Clone()
	}
	if o.StoppingControl != nil {
		p.StoppingControl = *o.StoppingControl
	}
	if o.StartAccel != nil {
		p.StartAccel = *o.StartAccel
	}
}
