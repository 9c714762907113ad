package main

import (
	"github.com/kgkim70/openpilot/internal/shaper"
)

// Series is one sampled curve.
type Series struct {
	Name string
	X, Y []float64
}

// Figure groups series sharing axes.
type Figure struct {
	Name   string
	Title  string
	XLabel string
	YLabel string
	Series []Series
}

func sample(lo, hi, step float64, f func(float64) float64) Series {
	var s Series
	for x := lo; x <= hi+step/2; x += step {
		s.X = append(s.X, x)
		s.Y = append(s.Y, f(x))
	}
	return s
}

// figures samples the shaper's response surfaces.
func figures(step float64) []Figure {
	creep := sample(0, 5, step, shaper.CreepCompensation)
	creep.Name = "creep brake"

	var bySpeed []Series
	for _, aTarget := range []float64{0, 0.5, 1.5} {
		a := aTarget
		s := sample(0, 30, step, func(v float64) float64 {
			return shaper.CalcAccelOverride(0, a, v, v+1)
		})
		s.Name = "aTarget=" + formatFloat(a)
		bySpeed = append(bySpeed, s)
	}

	var byError []Series
	for _, aEgo := range []float64{0, 0.6, 1.2} {
		a := aEgo
		s := sample(-2, 2, step/4, func(e float64) float64 {
			return shaper.CalcAccelOverride(a, 0.5, 15, 15+e)
		})
		s.Name = "aEgo=" + formatFloat(a)
		byError = append(byError, s)
	}

	return []Figure{
		{
			Name:   "creep",
			Title:  "Creep compensation",
			XLabel: "speed (m/s)",
			YLabel: "brake offset",
			Series: []Series{creep},
		},
		{
			Name:   "override_speed",
			Title:  "Accel override vs speed (vTarget = vEgo + 1)",
			XLabel: "vEgo (m/s)",
			YLabel: "override",
			Series: bySpeed,
		},
		{
			Name:   "override_error",
			Title:  "Accel override vs speed error (vEgo = 15, aTarget = 0.5)",
			XLabel: "vTarget - vEgo (m/s)",
			YLabel: "override",
			Series: byError,
		},
	}
}
