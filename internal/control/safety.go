package control

import (
	"fmt"
	"math"
)

// Throttle band below the outer ceiling and its taper divisor.
const (
	ThrottleBand    = 2.0
	ThrottleDivisor = 5.0
)

// Default hard ceilings in °C.
const (
	DefaultInternalCeiling = 70.0
	DefaultOuterCeiling    = 100.0
)

// Ceilings are the hard temperature limits. Internal applies to fnt, bck and
// chip; Outer applies to top and bot.
type Ceilings struct {
	Internal float64
	Outer    float64
}

// DefaultCeilings returns the factory limits.
func DefaultCeilings() Ceilings {
	return Ceilings{Internal: DefaultInternalCeiling, Outer: DefaultOuterCeiling}
}

// Readings are the sensor values the safety check looks at.
type Readings struct {
	Fnt, Bck, Top, Bot, Chip float64
	Rem                      float64
	RemValid                 bool
	// Failed names a ceiling probe that could not be read.
	Failed string
}

// Verdict is the outcome of a safety evaluation.
type Verdict struct {
	Delta     float64
	Cutoff    bool
	Throttled bool
	Reason    string
}

// EvaluateSafety turns target and readings into the control delta, forcing it to
// zero on an untrusted remote reading or a ceiling breach and tapering it near
// the outer ceiling. The taper is (outer-bot)/5 but never exceeds the plain delta.
func EvaluateSafety(c Ceilings, r Readings, target float64) Verdict {
	var v Verdict
	if r.RemValid && !math.IsNaN(r.Rem) {
		v.Delta = target - r.Rem
	}

	if reason := breach(c, r); reason != "" {
		v.Delta = 0
		v.Cutoff = true
		v.Reason = reason
		return v
	}

	if v.Delta > 0 && r.Bot > c.Outer-ThrottleBand {
		// The taper only ever lowers demand.
		if taper := (c.Outer - r.Bot) / ThrottleDivisor; taper < v.Delta {
			v.Delta = taper
			v.Throttled = true
		}
	}
	return v
}

func breach(c Ceilings, r Readings) string {
	if r.Failed != "" {
		return fmt.Sprintf("%s probe unreadable", r.Failed)
	}
	internal := []struct {
		name string
		val  float64
	}{{"fnt", r.Fnt}, {"bck", r.Bck}, {"chip", r.Chip}}
	for _, p := range internal {
		if p.val >= c.Internal {
			return fmt.Sprintf("%s %.1f >= internal ceiling %.1f", p.name, p.val, c.Internal)
		}
	}
	if r.Top >= c.Outer {
		return fmt.Sprintf("top %.1f >= outer ceiling %.1f", r.Top, c.Outer)
	}
	if r.Bot >= c.Outer {
		return fmt.Sprintf("bot %.1f >= outer ceiling %.1f", r.Bot, c.Outer)
	}
	return ""
}
