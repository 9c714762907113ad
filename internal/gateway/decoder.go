package gateway

import (
	"encoding/json"

	"github.com/kgkim70/openpilot/internal/car"
	"github.com/kgkim70/openpilot/internal/monitoring"
)

// Addresses the adapter reserves for decoded state and for commands.
const (
	StateAddress   uint32 = 0x3F0
	CommandAddress uint32 = 0x3F1
)

// StatePayload is the decoded vehicle state the adapter publishes at
// StateAddress. Speeds are m/s and the steering angle is degrees.
type StatePayload struct {
	VEgo           float64 `json:"v_ego"`
	AEgo           float64 `json:"a_ego"`
	SteeringAngle  float64 `json:"steering_angle"`
	ParkBrake      bool    `json:"park_brake"`
	MainOn         bool    `json:"main_on"`
	DistanceButton bool    `json:"distance_button"`
	CruiseSpeed    float64 `json:"cruise_speed"`
	Valid          bool    `json:"valid"`
}

// StateDecoder turns the adapter's state frames into raw snapshots.
// Without a fresh, valid state frame in a tick it repeats the last known
// kinematics with CanValid false.
type StateDecoder struct {
	Bus int

	last StatePayload
}

func NewStateDecoder() *StateDecoder {
	return &StateDecoder{}
}

// Decode implements cycle.Decoder.
func (d *StateDecoder) Decode(frames []car.Frame) car.VehicleState {
	valid := false
	for _, f := range frames {
		if f.Bus != d.Bus || f.Address != StateAddress {
			continue
		}
		var p StatePayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			monitoring.Logf("gateway: bad state frame: %v", err)
			valid = false
			continue
		}
		d.last = p
		valid = p.Valid
	}

	return car.VehicleState{
		VEgo:           d.last.VEgo,
		AEgo:           d.last.AEgo,
		SteeringAngle:  d.last.SteeringAngle,
		ParkBrake:      d.last.ParkBrake,
		MainOn:         d.last.MainOn,
		DistanceButton: d.last.DistanceButton,
		CruiseState:    car.CruiseState{Speed: d.last.CruiseSpeed},
		CanValid:       valid,
	}
}

// StateFrame wraps a payload as the adapter would send it.
func StateFrame(bus int, p StatePayload) (car.Frame, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return car.Frame{}, err
	}
	return car.Frame{Bus: bus, Address: StateAddress, Data: b}, nil
}
