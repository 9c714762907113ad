package cycle

import (
	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/params"
)

// VehicleControlInterface is the capability every vehicle integration
// offers the control loop. Update and Apply alternate strictly, once
// each per tick.
type VehicleControlInterface interface {
	Params() params.Profile
	Update(req car.ControlRequest, frames []car.Frame) car.VehicleState
	Apply(req car.ControlRequest) ([]car.Frame, error)
}

// Decoder turns one tick's bus frames into a snapshot. It fills the raw
// fields (speeds, steering angle, buttons, park brake, cruise main,
// CanValid); a decode fault is reported as CanValid=false, not an error.
type Decoder interface {
	Decode(frames []car.Frame) car.VehicleState
}

// DispatchInput is everything the dispatcher needs to build one tick's
// outbound frames.
type DispatchInput struct {
	Enabled   bool
	State     car.VehicleState
	Frame     uint64
	Actuators car.Actuators
	HUD       car.HUDControl
}

// Dispatcher encodes actuator intent into outbound frames. It must not
// block.
type Dispatcher interface {
	Dispatch(in DispatchInput) ([]car.Frame, error)
}

// SteerRateLimiter is implemented by dispatchers that clip the steering
// command rate and want the clip surfaced in the snapshot.
type SteerRateLimiter interface {
	SteerRateLimited() bool
}

// YawRateModel computes yaw rate (rad/s) from steering wheel angle (rad)
// and speed (m/s).
type YawRateModel interface {
	YawRate(steerAngle, speed float64) float64
}
