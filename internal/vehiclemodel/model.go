// Package vehiclemodel is a steady-state kinematic bicycle model used to
// derive yaw rate from steering angle and speed.
package vehiclemodel

import "github.com/kgkim70/openpilot/internal/params"

// Model holds the lateral dynamics parameters taken from a profile.
type Model struct {
	mass          float64
	wheelbase     float64
	centerToFront float64
	centerToRear  float64
	stiffFront    float64
	stiffRear     float64
	steerRatio    float64
	steerRatioRr  float64
}

// New builds a model from the profile's geometry and tire stiffness.
func New(p params.Profile) *Model {
	return &Model{
		mass:          p.Mass,
		wheelbase:     p.Wheelbase,
		centerToFront: p.CenterToFront,
		centerToRear:  p.Wheelbase - p.CenterToFront,
		stiffFront:    p.TireStiffnessFront,
		stiffRear:     p.TireStiffnessRear,
		steerRatio:    p.SteerRatio,
		steerRatioRr:  p.SteerRatioRear,
	}
}

// SlipFactor is the understeer term; negative for an understeering car.
func (m *Model) SlipFactor() float64 {
	den := m.wheelbase * m.wheelbase * m.stiffFront * m.stiffRear
	if den == 0 {
		return 0
	}
	return m.mass * (m.stiffFront*m.centerToFront - m.stiffRear*m.centerToRear) / den
}

// CurvatureFactor maps road-wheel angle to path curvature at speed u.
func (m *Model) CurvatureFactor(u float64) float64 {
	den := (1 - m.SlipFactor()*u*u) * m.wheelbase
	if den == 0 {
		return 0
	}
	return (1 - m.steerRatioRr) / den
}

// Curvature returns path curvature (1/m) for steering wheel angle sa (rad).
func (m *Model) Curvature(sa, u float64) float64 {
	if m.steerRatio == 0 {
		return 0
	}
	return m.CurvatureFactor(u) * sa / m.steerRatio
}

// YawRate returns the steady-state yaw rate (rad/s) for steering wheel
// angle sa (rad) at speed u (m/s).
func (m *Model) YawRate(sa, u float64) float64 {
	return m.Curvature(sa, u) * u
}
