package params

// StdCargoKg is the standard cargo allowance added to every curb mass.
const StdCargoKg = 136.

// Reference vehicle the inertia and tire stiffness scaling is anchored to.
const (
	refMass               = 1326. + StdCargoKg
	refWheelbase          = 2.70
	refCenterToFront      = refWheelbase * 0.4
	refCenterToRear       = refWheelbase - refCenterToFront
	refRotationalInertia  = 2500.
	refTireStiffnessFront = 192150.
	refTireStiffnessRear  = 202500.
)

// ScaleRotInertia scales the reference yaw inertia by mass and the
// square of the wheelbase.
func ScaleRotInertia(mass, wheelbase float64) float64 {
	return refRotationalInertia * mass / refMass * (wheelbase * wheelbase) / (refWheelbase * refWheelbase)
}

// ScaleTireStiffness scales the reference cornering stiffness by mass and
// center-of-gravity position so all variants have similar dynamics.
func ScaleTireStiffness(mass, wheelbase, centerToFront, factor float64) (front, rear float64) {
	centerToRear := wheelbase - centerToFront
	front = (refTireStiffnessFront * factor) * mass / refMass * (centerToRear / wheelbase) / (refCenterToRear / refWheelbase)
	rear = (refTireStiffnessRear * factor) * mass / refMass * (centerToFront / wheelbase) / (refCenterToFront / refWheelbase)
	return front, rear
}
