// Package car holds the per-cycle data shapes exchanged between the bus
// gateway, the control cycle and the outer control loop.
package car

import (
	"time"

	"github.com/kgkim70/openpilot/internal/events"
)

// Frame is one bus frame. The core treats Data as opaque.
type Frame struct {
	Bus       int       `json:"bus"`
	Address   uint32    `json:"address"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// CruiseState is the stock cruise-control view of the vehicle.
type CruiseState struct {
	Available  bool    `json:"available"`
	Enabled    bool    `json:"enabled"`
	Standstill bool    `json:"standstill"`
	Speed      float64 `json:"speed"`
}

// VehicleState is the normalized snapshot produced once per cycle.
// Speeds are m/s, SteeringAngle is degrees, YawRate is rad/s.
type VehicleState struct {
	VEgo          float64 `json:"v_ego"`
	AEgo          float64 `json:"a_ego"`
	SteeringAngle float64 `json:"steering_angle"`
	YawRate       float64 `json:"yaw_rate"`

	ParkBrake      bool `json:"park_brake"`
	MainOn         bool `json:"main_on"`
	DistanceButton bool `json:"distance_button"`
	FollowLevel    int  `json:"follow_level"`

	CruiseState         CruiseState `json:"cruise_state"`
	CanValid            bool        `json:"can_valid"`
	SteeringRateLimited bool        `json:"steering_rate_limited"`

	Events events.Set `json:"events"`
}

// VisualAlert is the dash alert code carried in the HUD request.
type VisualAlert int

const (
	AlertNone VisualAlert = iota
	AlertSteerRequired
	AlertBrakePressed
	AlertWrongGear
	AlertSeatbeltUnbuckled
	AlertSpeedTooHigh
)

// Actuators are the targets handed to the dispatcher. Accel is m/s^2
// before shaping; Gas and Brake are normalized [0,1] after shaping.
type Actuators struct {
	Accel         float64 `json:"accel"`
	Gas           float64 `json:"gas"`
	Brake         float64 `json:"brake"`
	Steer         float64 `json:"steer"`
	SteerAngle    float64 `json:"steer_angle"`
	AccelOverride float64 `json:"accel_override"`
}

// HUDControl carries dash display fields.
type HUDControl struct {
	SetSpeed     float64     `json:"set_speed"`
	LanesVisible bool        `json:"lanes_visible"`
	LeadVisible  bool        `json:"lead_visible"`
	VisualAlert  VisualAlert `json:"visual_alert"`
}

// ControlRequest is what the control loop asks of the vehicle each cycle.
type ControlRequest struct {
	Enabled    bool       `json:"enabled"`
	Actuators  Actuators  `json:"actuators"`
	HUDControl HUDControl `json:"hud_control"`
}
