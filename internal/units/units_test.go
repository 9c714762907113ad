package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		units    string
		expected float64
	}{
		{"10 m/s to mph", 10.0, MPH, 22.3694},
		{"10 m/s to kmph", 10.0, KMPH, 36.0},
		{"10 m/s to kph", 10.0, KPH, 36.0},
		{"10 m/s to mps", 10.0, MPS, 10.0},
		{"unknown units default to mps", 10.0, "unknown", 10.0},
		{"highway speed 31.29 m/s to mph", 31.29, MPH, 70.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedMPS, tt.units)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.units, result, tt.expected)
			}
		})
	}
}

func TestToMPSRoundTrip(t *testing.T) {
	for _, u := range ValidUnits {
		got := ToMPS(ConvertSpeed(12.5, u), u)
		if math.Abs(got-12.5) > 1e-9 {
			t.Errorf("round trip through %s = %f, want 12.5", u, got)
		}
	}
}

func TestKnownFactors(t *testing.T) {
	if got := 60 * KPHToMS; math.Abs(got-16.6667) > 1e-3 {
		t.Errorf("60 kph = %f m/s, want 16.667", got)
	}
	if got := 18 * MPHToMS; math.Abs(got-8.04672) > 1e-5 {
		t.Errorf("18 mph = %f m/s, want 8.04672", got)
	}
	if got := 180 * DegToRad; math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("180 deg = %f rad, want pi", got)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "MPH", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}
