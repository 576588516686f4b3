package control

import (
	"math"
	"testing"
)

func TestStageDemand(t *testing.T) {
	t.Parallel()
	th := Thresholds{Hold: 0.05, Single: 0.25, Full: 0.5}

	cases := []struct {
		delta float64
		want  Demand
	}{
		{-3, Demand{}},
		{0.02, Demand{}},
		{0.05, Demand{}},
		{0.15, Demand{One: true}},
		{0.25, Demand{Two: true}},
		{0.3, Demand{Two: true}},
		{0.5, Demand{One: true, Two: true}},
		{0.6, Demand{One: true, Two: true}},
	}
	for _, tc := range cases {
		if got := StageDemand(th, tc.delta); got != tc.want {
			t.Errorf("StageDemand(%v) = %+v, want %+v", tc.delta, got, tc.want)
		}
	}
}

func TestEvaluateSafety(t *testing.T) {
	t.Parallel()
	outer90 := Ceilings{Internal: 70, Outer: 90}

	cases := []struct {
		name      string
		c         Ceilings
		r         Readings
		target    float64
		delta     float64
		cutoff    bool
		throttled bool
	}{
		{
			name:   "plain_delta",
			c:      outer90,
			r:      Readings{Rem: 19, RemValid: true, Bot: 40},
			target: 20,
			delta:  1,
		},
		{
			name:   "invalid_sensor_no_demand",
			c:      outer90,
			r:      Readings{Rem: 10, RemValid: false},
			target: 20,
			delta:  0,
		},
		{
			name:   "nan_rem_no_demand",
			c:      outer90,
			r:      Readings{Rem: math.NaN(), RemValid: true},
			target: 20,
			delta:  0,
		},
		{
			name:   "bot_over_outer_cutoff",
			c:      outer90,
			r:      Readings{Rem: 10, RemValid: true, Bot: 91},
			target: 20,
			delta:  0,
			cutoff: true,
		},
		{
			name:   "top_at_outer_cutoff",
			c:      outer90,
			r:      Readings{Rem: 10, RemValid: true, Top: 90},
			target: 20,
			delta:  0,
			cutoff: true,
		},
		{
			name:   "chip_at_internal_cutoff",
			c:      outer90,
			r:      Readings{Rem: 10, RemValid: true, Chip: 70},
			target: 20,
			delta:  0,
			cutoff: true,
		},
		{
			name:   "fnt_over_internal_cutoff",
			c:      outer90,
			r:      Readings{Rem: 10, RemValid: true, Fnt: 75},
			target: 20,
			delta:  0,
			cutoff: true,
		},
		{
			name:   "unreadable_probe_cutoff",
			c:      outer90,
			r:      Readings{Rem: 18, RemValid: true, Bot: 85, Failed: "bot"},
			target: 20,
			delta:  0,
			cutoff: true,
		},
		{
			name:      "soft_taper",
			c:         outer90,
			r:         Readings{Rem: 19, RemValid: true, Bot: 89},
			target:    20,
			delta:     0.2,
			throttled: true,
		},
		{
			name:   "taper_never_raises_demand",
			c:      outer90,
			r:      Readings{Rem: 19.9, RemValid: true, Bot: 88.5},
			target: 20,
			delta:  20 - 19.9,
		},
		{
			name:   "taper_ignores_negative_delta",
			c:      outer90,
			r:      Readings{Rem: 22, RemValid: true, Bot: 89},
			target: 20,
			delta:  -2,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := EvaluateSafety(tc.c, tc.r, tc.target)
			if math.Abs(v.Delta-tc.delta) > 1e-9 {
				t.Fatalf("delta = %v, want %v", v.Delta, tc.delta)
			}
			if v.Cutoff != tc.cutoff || v.Throttled != tc.throttled {
				t.Fatalf("verdict = %+v", v)
			}
			if tc.cutoff && v.Reason == "" {
				t.Fatalf("cutoff without reason")
			}
		})
	}
}

func TestSafetyCutoff_DemandOff(t *testing.T) {
	t.Parallel()
	th := Thresholds{Hold: 0.05, Single: 0.25, Full: 0.5}
	for _, target := range []float64{12, 20, 26, 80} {
		v := EvaluateSafety(Ceilings{Internal: 70, Outer: 90}, Readings{Rem: 5, RemValid: true, Bot: 91}, target)
		if d := StageDemand(th, v.Delta); d != (Demand{}) {
			t.Fatalf("target %v: demand %+v", target, d)
		}
	}
}
