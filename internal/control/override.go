package control

import "time"

// Override is a time-bounded manual target. A zero Expires never expires.
type Override struct {
	Active  bool
	Target  float64
	Expires time.Time
}

// ActivateOverride starts an override of target lasting d from now.
func ActivateOverride(target float64, d time.Duration, now time.Time) Override {
	return Override{Active: true, Target: target, Expires: now.Add(d)}
}

// Tick applies expiry and the floor clamp for one control cycle.
// expired is true when this call deactivated the override.
func (o Override) Tick(now time.Time, floor float64) (next Override, expired bool) {
	if !o.Active {
		return Override{}, false
	}
	if !o.Expires.IsZero() && !now.Before(o.Expires) {
		return Override{}, true
	}
	if o.Target < floor {
		o.Target = floor
	}
	return o, false
}

// Remaining reports the time left before expiry, zero if inactive or expired.
func (o Override) Remaining(now time.Time) time.Duration {
	if !o.Active || o.Expires.IsZero() {
		return 0
	}
	if d := o.Expires.Sub(now); d > 0 {
		return d
	}
	return 0
}
