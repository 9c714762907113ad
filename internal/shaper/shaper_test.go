package shaper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCreepAdjustedAccel(t *testing.T) {
	tests := []struct {
		name  string
		accel float64
		speed float64
		want  float64
	}{
		{"standstill", 0, 0, -0.10},
		{"standstill with accel", 4.8, 0, 0.9},
		{"half creep speed", 0, 1.34, -0.05},
		{"at creep speed", 0, 2.68, 0},
		{"above creep speed", 0, 2.7, 0},
		{"highway", 2.4, 30, 0.5},
		{"braking", -4.8, 15, -1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeCreepAdjustedAccel(tt.accel, tt.speed), 1e-12)
		})
	}
}

func TestCreepCompensationIsZeroAboveThreshold(t *testing.T) {
	for v := CreepSpeed; v < 60; v += 0.37 {
		assert.Equal(t, 0.0, CreepCompensation(v), "speed %v", v)
	}
	prev := CreepCompensation(0)
	for v := 0.1; v < CreepSpeed; v += 0.1 {
		c := CreepCompensation(v)
		assert.LessOrEqual(t, c, prev, "creep must not grow with speed")
		prev = c
	}
}

func TestCalcAccelOverrideKnownValues(t *testing.T) {
	tests := []struct {
		name                      string
		aEgo, aTarget, vEgo, vTgt float64
		want                      float64
	}{
		// eV=-10, eA=0: both limiters 1, ceiling 0.85
		{"low speed far below target", 0, 0, 5, 15, 0.85},
		// eV=0 -> speed limiter 1, range limiter 0, accel limiter 1
		{"at target speed", 0, 0, 15, 15, 0.925},
		// eV=0.25 -> speed limiter 0.55
		{"slightly above target", 0, 0, 20.25, 20, 0.55},
		// eV=1 -> speed limiter clamps to 0.1
		{"well above target", 0, 0, 21, 20, 0.1},
		// aTarget/0.15 = 2 dominates the 1.0 ceiling
		{"hard restart", 0, 0.3, 25, 30, 2.0},
		// eA=0.7 -> accel limiter 0.55, eV=0 -> range limiter 0
		{"accel overshoot", 0.7, 0, 20, 20, 0.55},
		// eA=0.7 but eV=-1 -> range limiter 1 wins
		{"accel overshoot far below target", 0.7, 0, 20, 21, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalcAccelOverride(tt.aEgo, tt.aTarget, tt.vEgo, tt.vTgt), 1e-12)
		})
	}
}

func TestCalcAccelOverrideBounds(t *testing.T) {
	for aEgo := -3.0; aEgo <= 3; aEgo += 0.5 {
		for aTarget := -3.0; aTarget <= 3; aTarget += 0.5 {
			for vEgo := 0.0; vEgo <= 40; vEgo += 2.5 {
				for vTarget := 0.0; vTarget <= 40; vTarget += 2.5 {
					l := ComputeLimiters(aEgo, aTarget, vEgo, vTarget)
					assert.True(t, l.Speed >= 0 && l.Speed <= 1)
					assert.True(t, l.Accel >= 0 && l.Accel <= 1)

					ceiling := math.Max(l.MaxAccel, aTarget/FollowAggression)
					got := CalcAccelOverride(aEgo, aTarget, vEgo, vTarget)
					assert.LessOrEqual(t, got, ceiling+1e-12)
					assert.GreaterOrEqual(t, got, 0.0)
				}
			}
		}
	}
}

func TestCalcAccelOverrideDeterministic(t *testing.T) {
	a := CalcAccelOverride(0.123456789, 0.2, 13.37, 14.2)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a, CalcAccelOverride(0.123456789, 0.2, 13.37, 14.2))
	}
}
